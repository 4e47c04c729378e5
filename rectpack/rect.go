package rectpack

import (
	"fmt"
	"image"
)

// Point 描述了二维空间中的一个位置。原点在左上角，y 轴向下增长。
type Point struct {
	// X 是在水平 x 轴上的位置。
	X int `json:"x"`
	// Y 是在垂直 y 轴上的位置。
	Y int `json:"y"`
}

// Size 描述了二维空间中实体的尺寸。
type Size struct {
	// Width 是在水平 x 轴上的尺寸。
	Width int `json:"w"`
	// Height 是在垂直 y 轴上的尺寸。
	Height int `json:"h"`
}

// NewSize 创建具有指定尺寸的新尺寸对象。
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// Area 返回总面积（宽度 * 高度）。
func (sz Size) Area() int {
	return sz.Width * sz.Height
}

// Perimeter 返回所有边的总长度。
func (sz Size) Perimeter() int {
	return (sz.Width + sz.Height) << 1
}

// MaxSide 返回较大边的值。
func (sz Size) MaxSide() int {
	return max(sz.Width, sz.Height)
}

// MinSide 返回较小边的值。
func (sz Size) MinSide() int {
	return min(sz.Width, sz.Height)
}

// Rect 描述了图集中的一个位置（左上角）和尺寸。
// 打包过程中只会改写位置，尺寸在创建后保持不变。
type Rect struct {
	Point
	Size
}

// NewRect 初始化一个使用指定点和尺寸值的新矩形。
func NewRect(x, y, w, h int) Rect {
	return Rect{
		Point: Point{X: x, Y: y},
		Size:  Size{Width: w, Height: h},
	}
}

// NewRectWH 初始化一个原点在 (0,0) 的矩形，通常用来表示画布。
func NewRectWH(w, h int) Rect {
	return NewRect(0, 0, w, h)
}

// SetXY 将矩形移动到指定的绝对坐标。
func (r *Rect) SetXY(x, y int) {
	r.X = x
	r.Y = y
}

// Eq 比较两个矩形以确定位置和尺寸是否相等。
func (r Rect) Eq(rect Rect) bool {
	return r == rect
}

// String 返回描述矩形的字符串。
func (r Rect) String() string {
	return fmt.Sprintf("[%v, %v, %v, %v]", r.X, r.Y, r.Width, r.Height)
}

// Right 返回矩形右边缘在 x 轴上的坐标（不包含）。
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom 返回矩形下边缘在 y 轴上的坐标（不包含）。
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// MaxXInclusive 返回矩形最后一列的坐标。
func (r Rect) MaxXInclusive() int {
	return r.X + r.Width - 1
}

// MaxYInclusive 返回矩形最后一行的坐标。
func (r Rect) MaxYInclusive() int {
	return r.Y + r.Height - 1
}

// IsEmpty 测试矩形的宽度或高度是否小于1。
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Image 返回对应的 image.Rectangle。
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// Overlaps 测试接收者是否与另一个矩形重叠，other 的范围在每个轴上
// 分别按 xspacing / yspacing 向外扩展。退化矩形（宽或高为0）永远不重叠。
func (r Rect) Overlaps(other Rect, xspacing, yspacing int) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	if other.MaxXInclusive()+xspacing < r.X || other.X > r.MaxXInclusive()+xspacing {
		return false
	}
	if other.MaxYInclusive()+yspacing < r.Y || other.Y > r.MaxYInclusive()+yspacing {
		return false
	}
	return true
}

// Inside 测试接收者是否位于 container 之内，并且每一侧至少留有
// xspacing / yspacing 的边距。container 被视为锚定在原点，它自己的 X、Y 会被忽略。
func (r Rect) Inside(container Rect, xspacing, yspacing int) bool {
	if r.IsEmpty() || container.IsEmpty() {
		return false
	}
	return r.X >= xspacing && r.X+r.Width+xspacing <= container.Width &&
		r.Y >= yspacing && r.Y+r.Height+yspacing <= container.Height
}
