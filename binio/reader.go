package binio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Reader 解码 Writer 生成的表。
// 越过数据末尾的读取会记录一个包装 io.ErrUnexpectedEOF 的错误并返回零值，之后的读取都失败。
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader 包装 data，compressed 为 true 时 data 必须是 zlib 流
func NewReader(data []byte, compressed bool) (*Reader, error) {
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("binio: decompress: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("binio: decompress: %w", err)
		}
	}
	return &Reader{data: data}, nil
}

// ReadFile 读取保存在 path 的表
func ReadFile(path string, compressed bool) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReader(data, compressed)
}

// next 返回接下来的 n 个字节，数据不足时记录错误并返回 nil
func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.err = fmt.Errorf("binio: read %d bytes at offset %d: %w", n, r.pos, io.ErrUnexpectedEOF)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadUInt8 读取一个字节
func (r *Reader) ReadUInt8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadInt8 读取一个有符号字节
func (r *Reader) ReadInt8() int8 {
	return int8(r.ReadUInt8())
}

// ReadUInt16 读取小端序16位无符号整数
func (r *Reader) ReadUInt16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadInt16 读取小端序16位有符号整数
func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUInt16())
}

// ReadUInt32 读取小端序32位无符号整数
func (r *Reader) ReadUInt32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadInt32 读取小端序32位有符号整数
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUInt32())
}

// ReadFloat32 读取 IEEE 754 位模式的 float32
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUInt32())
}

// ReadString 读取带 uint16 长度前缀的字符串
func (r *Reader) ReadString() string {
	n := int(r.ReadUInt16())
	b := r.next(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadBytes 读取带 uint32 长度前缀的数据块，返回的是副本
func (r *Reader) ReadBytes() []byte {
	n := r.ReadUInt32()
	if uint64(n) > uint64(len(r.data)-r.pos) {
		r.next(len(r.data) - r.pos + 1)
		return nil
	}
	b := r.next(int(n))
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

// EOF 报告数据是否已全部读完
func (r *Reader) EOF() bool {
	return r.pos >= len(r.data)
}

// Err 返回遇到的第一个错误
func (r *Reader) Err() error {
	return r.err
}
