package rectpack

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

func (p *Packer) checkOrganized() error {
	if p.resolution.IsEmpty() {
		return ErrNotOrganized
	}
	return nil
}

// CreateRGBA 创建画布大小、全部为0的 RGBA 缓冲区（行跨度 width*4），
// 按顺序把每个元素连同边框写入其中。边框的宽高是间距的一半。
func (p *Packer) CreateRGBA() ([]byte, error) {
	if err := p.checkOrganized(); err != nil {
		return nil, err
	}
	w, h := p.resolution.Width, p.resolution.Height
	result := make([]byte, w*h*4)
	for _, e := range p.elements {
		if err := e.CopyRGBATo(result, w*4, p.xspacing/2, p.yspacing/2); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CreateA 创建画布大小的单通道缓冲区，只包含每个元素的 alpha 通道，没有边框。
func (p *Packer) CreateA() ([]byte, error) {
	if err := p.checkOrganized(); err != nil {
		return nil, err
	}
	w, h := p.resolution.Width, p.resolution.Height
	result := make([]byte, w*h)
	for _, e := range p.elements {
		if err := e.CopyAlphaTo(result, w, p.xspacing/2, p.yspacing/2); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RGBAImage 将 CreateRGBA 的结果包装为 *image.NRGBA。
func (p *Packer) RGBAImage() (*image.NRGBA, error) {
	pix, err := p.CreateRGBA()
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: p.resolution.Width * 4,
		Rect:   image.Rect(0, 0, p.resolution.Width, p.resolution.Height),
	}, nil
}

// AlphaImage 将 CreateA 的结果包装为灰度图。
func (p *Packer) AlphaImage() (*image.Gray, error) {
	pix, err := p.CreateA()
	if err != nil {
		return nil, err
	}
	return &image.Gray{
		Pix:    pix,
		Stride: p.resolution.Width,
		Rect:   image.Rect(0, 0, p.resolution.Width, p.resolution.Height),
	}, nil
}

// SavePNG 合成 RGBA 图集并保存。格式由文件扩展名决定。
func (p *Packer) SavePNG(path string) error {
	img, err := p.RGBAImage()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("rectpack: save %s: %w", path, err)
	}
	return nil
}

// SaveAlphaPNG 合成 alpha 图集并保存为灰度图。
func (p *Packer) SaveAlphaPNG(path string) error {
	img, err := p.AlphaImage()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("rectpack: save %s: %w", path, err)
	}
	return nil
}
