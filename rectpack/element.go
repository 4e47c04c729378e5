package rectpack

import (
	"fmt"
	"image"

	"atlasbake/binio"

	"github.com/disintegration/imaging"
)

// Element 是图集中的一个精灵：一个带名字的矩形，加上独占的 RGBA 像素缓冲区。
// 缓冲区大小在创建时固定为 w*h*4 字节，行跨度为 w*4。
type Element struct {
	// Name 是精灵的显示名称，不要求唯一。
	Name string

	rect   Rect
	buffer []byte
}

// NewElement 创建一个指定尺寸的元素并分配像素缓冲区。
// 宽度或高度小于等于0时返回 ErrInvalidDimensions。
func NewElement(name string, w, h int) (*Element, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w (given %vx%v for %q)", ErrInvalidDimensions, w, h, name)
	}
	return &Element{
		Name:   name,
		rect:   NewRectWH(w, h),
		buffer: make([]byte, w*h*4),
	}, nil
}

// Rect 返回元素当前的位置和尺寸。Organize 之前位置没有意义。
func (e *Element) Rect() Rect {
	return e.rect
}

// HasPixels 判断元素是否拥有像素缓冲区。从位置表读取的元素没有。
func (e *Element) HasPixels() bool {
	return e.buffer != nil
}

// Pixels 返回元素自己的 RGBA 缓冲区（由元素管理，可以直接写入）。
func (e *Element) Pixels() []byte {
	return e.buffer
}

func (e *Element) stride() int {
	return e.rect.Width * 4
}

// CopyFrom 从 src 复制 h 行，每行 w*4 字节，src 的行跨度为 stride。
func (e *Element) CopyFrom(src []byte, stride int) error {
	if e.buffer == nil {
		return fmt.Errorf("%w: %q", ErrNoPixels, e.Name)
	}
	rowBytes := e.stride()
	if stride < rowBytes || len(src) < stride*(e.rect.Height-1)+rowBytes {
		return fmt.Errorf("%w: %q needs %d rows of %d bytes, stride %d, got %d bytes",
			ErrShortBuffer, e.Name, e.rect.Height, rowBytes, stride, len(src))
	}
	for y := 0; y < e.rect.Height; y++ {
		copy(e.buffer[y*rowBytes:(y+1)*rowBytes], src[y*stride:y*stride+rowBytes])
	}
	return nil
}

// CopyFromImage 将任意解码后的图像复制到元素中。图像尺寸必须与元素一致。
func (e *Element) CopyFromImage(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != e.rect.Width || b.Dy() != e.rect.Height {
		return fmt.Errorf("%w: %q is %vx%v, image is %vx%v",
			ErrSizeMismatch, e.Name, e.rect.Width, e.rect.Height, b.Dx(), b.Dy())
	}
	// imaging.Clone 总是返回原点为 (0,0) 的非预乘 NRGBA
	nrgba := imaging.Clone(img)
	return e.CopyFrom(nrgba.Pix, nrgba.Stride)
}

// Image 返回元素像素的 NRGBA 视图，与元素共享缓冲区。
func (e *Element) Image() (*image.NRGBA, error) {
	if e.buffer == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoPixels, e.Name)
	}
	return &image.NRGBA{
		Pix:    e.buffer,
		Stride: e.stride(),
		Rect:   image.Rect(0, 0, e.rect.Width, e.rect.Height),
	}, nil
}

// SavePNG 将元素自己的像素保存为 PNG 文件。
func (e *Element) SavePNG(path string) error {
	img, err := e.Image()
	if err != nil {
		return err
	}
	return imaging.Save(img, path)
}

// fits 检查元素连同 xborder/yborder 的边框是否落在 dst 之内。
func (e *Element) fits(dstLen, stride, bpp, xborder, yborder int) bool {
	r := e.rect
	if r.X-xborder < 0 || r.Y-yborder < 0 {
		return false
	}
	if (r.Right()+xborder)*bpp > stride {
		return false
	}
	lastRow := r.Bottom() + yborder - 1
	return lastRow*stride+(r.Right()+xborder)*bpp <= dstLen
}

// CopyRGBATo 将元素的 RGBA 行写入 dst 中它的矩形位置，然后在四周生成
// 宽 xborder、高 yborder 的边框：每个边框像素的 RGB 取自钳制到 [0,w-1]x[0,h-1]
// 的最近边缘像素，alpha 强制为0。这样纹理过滤时不会混入相邻精灵的颜色。
func (e *Element) CopyRGBATo(dst []byte, stride, xborder, yborder int) error {
	if e.buffer == nil {
		return fmt.Errorf("%w: %q", ErrNoPixels, e.Name)
	}
	if !e.fits(len(dst), stride, 4, xborder, yborder) {
		return fmt.Errorf("%w: %q at %s with border %dx%d", ErrOutOfBounds, e.Name, e.rect.String(), xborder, yborder)
	}
	r := e.rect
	rowBytes := e.stride()
	for y := 0; y < r.Height; y++ {
		offset := r.X*4 + stride*(y+r.Y)
		copy(dst[offset:offset+rowBytes], e.buffer[y*rowBytes:(y+1)*rowBytes])
	}

	// 边框
	for y := -yborder; y < r.Height+yborder; y++ {
		srcY := min(max(y, 0), r.Height-1)
		for x := -xborder; x < r.Width+xborder; x++ {
			if x >= 0 && x < r.Width && y >= 0 && y < r.Height {
				continue
			}
			srcX := min(max(x, 0), r.Width-1)
			d := (r.X+x)*4 + stride*(y+r.Y)
			s := (srcX + srcY*r.Width) * 4
			dst[d+0] = e.buffer[s+0]
			dst[d+1] = e.buffer[s+1]
			dst[d+2] = e.buffer[s+2]
			dst[d+3] = 0
		}
	}
	return nil
}

// CopyAlphaTo 只把元素的 alpha 通道写入单通道的 dst。
// 这条路径不生成边框，xborder/yborder 只参与越界检查。
func (e *Element) CopyAlphaTo(dst []byte, stride, xborder, yborder int) error {
	if e.buffer == nil {
		return fmt.Errorf("%w: %q", ErrNoPixels, e.Name)
	}
	if !e.fits(len(dst), stride, 1, 0, 0) {
		return fmt.Errorf("%w: %q at %s", ErrOutOfBounds, e.Name, e.rect.String())
	}
	r := e.rect
	for y := 0; y < r.Height; y++ {
		row := dst[r.X+stride*(y+r.Y):]
		src := e.buffer[y*r.Width*4:]
		for x := 0; x < r.Width; x++ {
			row[x] = src[x*4+3]
		}
	}
	return nil
}

// write 把名字和矩形写入位置表，像素数据不会被保存。
func (e *Element) write(w *binio.Writer) {
	r := e.rect
	for _, v := range [...]int{r.X, r.Y, r.Width, r.Height} {
		if v < 0 || v > 0xFFFF {
			w.SetError(fmt.Errorf("%w: %q at %s", ErrCoordinateRange, e.Name, r.String()))
			return
		}
	}
	w.WriteString(e.Name)
	w.WriteUInt16(uint16(r.X))
	w.WriteUInt16(uint16(r.Y))
	w.WriteUInt16(uint16(r.Width))
	w.WriteUInt16(uint16(r.Height))
}

// read 从位置表恢复名字和矩形，并丢弃已有的像素缓冲区。
func (e *Element) read(r *binio.Reader) {
	e.buffer = nil
	e.Name = r.ReadString()
	x := int(r.ReadUInt16())
	y := int(r.ReadUInt16())
	w := int(r.ReadUInt16())
	h := int(r.ReadUInt16())
	e.rect = NewRect(x, y, w, h)
}
