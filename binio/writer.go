// Package binio 读写图集使用的小端序二进制表。
// 表先在内存中构建，结束时可以整体使用 zlib 压缩。
package binio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
)

// ErrStringTooLong 字符串或数据块的长度超出了长度前缀能表示的范围
var ErrStringTooLong = errors.New("binio: value too long for length prefix")

// Writer 在内存中累积一张二进制表。
// 第一个错误会被保留，之后的写入全部忽略，由 Err、Bytes 和 WriteFile 返回该错误。
type Writer struct {
	buf      []byte
	compress bool
	err      error
}

// NewWriter 创建一个空的 Writer，compress 为 true 时最终输出为 zlib 流。
func NewWriter(compress bool) *Writer {
	return &Writer{compress: compress}
}

// WriteUInt8 写入一个字节
func (w *Writer) WriteUInt8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

// WriteInt8 写入一个有符号字节
func (w *Writer) WriteInt8(v int8) {
	w.WriteUInt8(uint8(v))
}

// WriteUInt16 以小端序写入16位无符号整数
func (w *Writer) WriteUInt16(v uint16) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteInt16 以小端序写入16位有符号整数
func (w *Writer) WriteInt16(v int16) {
	w.WriteUInt16(uint16(v))
}

// WriteUInt32 以小端序写入32位无符号整数
func (w *Writer) WriteUInt32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteInt32 以小端序写入32位有符号整数
func (w *Writer) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

// WriteFloat32 以 IEEE 754 位模式写入 float32
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUInt32(math.Float32bits(v))
}

// WriteString 先写入 uint16 长度，再写入 s 的原始字节
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		w.err = fmt.Errorf("%w: string of %d bytes", ErrStringTooLong, len(s))
		return
	}
	w.WriteUInt16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBytes 先写入 uint32 长度，再写入 b，用于在表中嵌入编码后的图片等数据块
func (w *Writer) WriteBytes(b []byte) {
	if w.err != nil {
		return
	}
	if uint64(len(b)) > math.MaxUint32 {
		w.err = fmt.Errorf("%w: blob of %d bytes", ErrStringTooLong, len(b))
		return
	}
	w.WriteUInt32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// SetError 在没有更早的错误时记录 err。
// 调用方自行校验数据时用它中止整张表的写入。
func (w *Writer) SetError(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Err 返回遇到的第一个错误
func (w *Writer) Err() error {
	return w.err
}

// Len 返回目前已写入的未压缩字节数
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes 结束写入并返回编码后的表（需要时已压缩）
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if !w.compress {
		return w.buf, nil
	}
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(w.buf); err != nil {
		return nil, fmt.Errorf("binio: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("binio: compress: %w", err)
	}
	return out.Bytes(), nil
}

// WriteFile 结束写入并把表保存到 path
func (w *Writer) WriteFile(path string) error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
