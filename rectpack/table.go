package rectpack

import (
	"fmt"

	"atlasbake/binio"
)

// Write 把元素数量和每个元素的 (名字, 矩形) 按顺序写入位置表，不包含像素。
// 任何坐标或尺寸超出 [0,65535] 时返回 ErrCoordinateRange，而不是截断。
func (p *Packer) Write(w *binio.Writer) error {
	w.WriteUInt32(uint32(len(p.elements)))
	for _, e := range p.elements {
		e.write(w)
	}
	return w.Err()
}

// Read 用位置表中的内容整体替换当前的元素。读出的元素只有布局，没有像素，
// 画布尺寸保持为零值。出错时打包器为空。
func (p *Packer) Read(r *binio.Reader) error {
	p.Clear()
	n := r.ReadUInt32()
	for i := uint32(0); i < n && r.Err() == nil; i++ {
		e := &Element{}
		e.read(r)
		if r.Err() == nil {
			p.elements = append(p.elements, e)
		}
	}
	if err := r.Err(); err != nil {
		p.Clear()
		return fmt.Errorf("rectpack: read table: %w", err)
	}
	return nil
}

// WriteTable 把位置表写入文件，compress 为 true 时整体使用 zlib 压缩。
func (p *Packer) WriteTable(path string, compress bool) error {
	w := binio.NewWriter(compress)
	if err := p.Write(w); err != nil {
		return err
	}
	return w.WriteFile(path)
}

// ReadTable 从文件读取位置表。
func (p *Packer) ReadTable(path string, compressed bool) error {
	r, err := binio.ReadFile(path, compressed)
	if err != nil {
		return err
	}
	return p.Read(r)
}
