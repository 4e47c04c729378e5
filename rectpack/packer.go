package rectpack

import (
	"fmt"
	"math/bits"
	"slices"
)

const (
	// InitialSize 是两种增长策略起始画布的宽和高。
	InitialSize = 128

	// DefaultMaxSize 是画布每条边默认允许增长到的最大值，
	// 基于现代GPU常见的最大纹理尺寸。
	DefaultMaxSize = 16384

	// tableLimit 是位置表中16位坐标能描述的最大画布边长。
	tableLimit = 1 << 16
)

// Packer 包含图集打包器的状态。
//
// 元素的插入顺序就是放置的优先级：先插入的元素先放置，之后不会再移动。
// Packer 不是并发安全的。
type Packer struct {
	// elements 由打包器独占，调用方拿到的 *Element 只用于填充像素
	elements []*Element

	// xspacing/yspacing 是两个精灵之间的最小间距，总是偶数，
	// 每个精灵在每一侧分到一半
	xspacing int
	yspacing int

	// resolution 是最终选定的画布，原点总是 (0,0)；Organize 成功前为零值
	resolution Rect

	// maxSize 是增长循环允许画布任意一条边达到的最大值
	//
	// 默认值：DefaultMaxSize
	maxSize int
}

// NewPacker 创建一个新的打包器。奇数间距会被向上取整为偶数，负数视为0。
func NewPacker(xspacing, yspacing int) *Packer {
	return &Packer{
		xspacing: evenSpacing(xspacing),
		yspacing: evenSpacing(yspacing),
		maxSize:  DefaultMaxSize,
	}
}

func evenSpacing(v int) int {
	v = max(v, 0)
	if v%2 == 1 {
		v++
	}
	return v
}

// SetMaxSize 设置画布边长上限，取值会被限制在 [InitialSize, 65536]，
// 并向下取整为2的幂（画布只会加倍增长，达不到中间的尺寸）。
func (p *Packer) SetMaxSize(n int) {
	n = min(max(n, InitialSize), tableLimit)
	p.maxSize = 1 << (bits.Len(uint(n)) - 1)
}

// MaxSize 返回画布边长上限。
func (p *Packer) MaxSize() int {
	return p.maxSize
}

// Spacing 返回规整后的水平和垂直间距。
func (p *Packer) Spacing() (x, y int) {
	return p.xspacing, p.yspacing
}

// Resolution 返回 Organize 选定的画布。Organize 成功之前宽高为0。
func (p *Packer) Resolution() Rect {
	return p.resolution
}

// AddElement 创建一个指定尺寸的元素并追加到打包队列的末尾，
// 返回的元素由调用方填充像素。在 Organize 之前它的位置没有意义。
// 之前的布局随之失效，需要重新调用 Organize 才能合成图集。
func (p *Packer) AddElement(name string, w, h int) (*Element, error) {
	e, err := NewElement(name, w, h)
	if err != nil {
		return nil, err
	}
	p.elements = append(p.elements, e)
	p.resolution = Rect{}
	return e, nil
}

// Elements 返回按放置优先级排列的元素(由内部管理，如需修改请复制)
func (p *Packer) Elements() []*Element {
	return p.elements
}

// Len 返回元素数量。
func (p *Packer) Len() int {
	return len(p.elements)
}

// Clear 移除所有元素并清空画布尺寸，保留间距和上限配置。
func (p *Packer) Clear() {
	clear(p.elements)
	p.elements = p.elements[:0]
	p.resolution = Rect{}
}

// Sort 按 compare 重新排列元素，也就是改变放置优先级。排序是稳定的。
// compare 为 nil 时只在 reverse 为 true 的情况下反转当前顺序。
// 应在 Organize 之前调用。
func (p *Packer) Sort(compare SortFunc, reverse bool) {
	if compare == nil {
		if reverse {
			slices.Reverse(p.elements)
		}
		return
	}
	slices.SortStableFunc(p.elements, func(a, b *Element) int {
		if reverse {
			return compare(b.rect.Size, a.rect.Size)
		}
		return compare(a.rect.Size, b.rect.Size)
	})
}

// collides 判断元素是否与前 n 个元素（已放置的）重叠。
func (p *Packer) collides(e *Element, n int) bool {
	for _, other := range p.elements[:n] {
		if e.rect.Overlaps(other.rect, p.xspacing, p.yspacing) {
			return true
		}
	}
	return false
}

// insertPositions 计算第 currY 行的候选 x 坐标：左边距，以及每个穿过
// 探测条 [0, currY, canvas.Width, 1] 的已放置元素右侧留出间距后的位置。
func (p *Packer) insertPositions(dst []int, canvas Rect, currY, n int) []int {
	dst = append(dst[:0], p.xspacing/2)
	probe := NewRect(0, currY, canvas.Width, 1)
	for _, other := range p.elements[:n] {
		if !probe.Overlaps(other.rect, p.xspacing, p.yspacing) {
			continue
		}
		dst = append(dst, other.rect.Right()+p.xspacing)
	}
	return dst
}

// nextRow 在穿过 currY 探测条的已放置元素中，找到最小的
// bottom + 1 + yspacing 作为下一行。找不到或已经到达画布底部时返回 false。
func (p *Packer) nextRow(canvas Rect, currY, n int) (int, bool) {
	if currY+p.yspacing >= canvas.Height {
		return 0, false
	}
	probe := NewRect(0, currY, canvas.Width, 1)
	ymax := canvas.Height
	found := false
	for _, other := range p.elements[:n] {
		if !probe.Overlaps(other.rect, p.xspacing, p.yspacing) {
			continue
		}
		if y := other.rect.MaxYInclusive() + 1 + p.yspacing; y < ymax {
			ymax = y
			found = true
		}
	}
	return ymax, found
}

// repositionAll 按插入顺序在 canvas 上逐行放置所有元素，第一个可行的位置即被采用，
// 不会回溯。任何一个元素放不下时返回 false，此时元素的位置是未定义的。
//
// fastMode 为 false 时每个元素都从最上面一行开始搜索；为 true 时沿用上一个
// 元素所在的行，速度更快但可能更浪费空间。
func (p *Packer) repositionAll(canvas Rect, fastMode bool) bool {
	if len(p.elements) == 0 {
		return true
	}
	positions := make([]int, 0, len(p.elements)+1)
	currY := p.yspacing / 2
	for i, e := range p.elements {
		if !fastMode {
			currY = p.yspacing / 2
		}
		positions = p.insertPositions(positions, canvas, currY, i)
		for {
			found := false
			for _, x := range positions {
				e.rect.SetXY(x, currY)
				if !p.collides(e, i) && e.rect.Inside(canvas, p.xspacing/2, p.yspacing/2) {
					found = true
					break
				}
			}
			if found {
				break
			}
			next, ok := p.nextRow(canvas, currY, i)
			if !ok {
				return false
			}
			currY = next
			positions = p.insertPositions(positions, canvas, currY, i)
		}
	}
	return true
}

// grow 从 InitialSize 的正方形开始，每次放置失败时把一条边加倍，
// 宽高交替进行。heightFirst 决定先增长哪条边。
// 需要增长的边已经到达上限时改为增长另一条边，两条边都到达上限时返回错误。
func (p *Packer) grow(heightFirst, fastMode bool) (Rect, error) {
	canvas := NewRectWH(InitialSize, InitialSize)
	side := 0
	if heightFirst {
		side = 1
	}
	for !p.repositionAll(canvas, fastMode) {
		grown := false
		for i := 0; i < 2; i++ {
			if side == 0 && canvas.Width<<1 <= p.maxSize {
				canvas.Width <<= 1
				grown = true
			} else if side == 1 && canvas.Height<<1 <= p.maxSize {
				canvas.Height <<= 1
				grown = true
			}
			side = (side + 1) % 2
			if grown {
				break
			}
		}
		if !grown {
			return Rect{}, fmt.Errorf("%w: %d elements do not fit in %vx%v",
				ErrCanvasLimitExceeded, len(p.elements), canvas.Width, canvas.Height)
		}
		Logger().Debug("rectpack: grow canvas", "heightFirst", heightFirst, "width", canvas.Width, "height", canvas.Height)
	}
	return canvas, nil
}

// checkFits 检查每个元素单独放在最大画布上时是否放得下，
// 避免对注定失败的输入跑完整个增长循环。
func (p *Packer) checkFits() error {
	for _, e := range p.elements {
		r := e.rect
		if r.IsEmpty() {
			return fmt.Errorf("%w (given %vx%v for %q)", ErrInvalidDimensions, r.Width, r.Height, e.Name)
		}
		if r.Width+p.xspacing > p.maxSize || r.Height+p.yspacing > p.maxSize {
			return fmt.Errorf("%w: %q (%vx%v plus spacing) exceeds %v",
				ErrCanvasLimitExceeded, e.Name, r.Width, r.Height, p.maxSize)
		}
	}
	return nil
}

// Organize 计算所有元素的位置和最终画布尺寸。
//
// 两种增长策略（先加宽 / 先加高）各自从 128x128 开始运行，选择面积较小的画布，
// 面积相同时取先加宽的结果；随后在选定的画布上重新放置一次，保证元素位置
// 对应最终尺寸。只有一种策略成功时直接采用它。
//
// 画布无法在 MaxSize 之内放下所有元素时返回 ErrCanvasLimitExceeded，
// 此时 Resolution 为零值。
func (p *Packer) Organize(fastMode bool) error {
	p.resolution = Rect{}
	if err := p.checkFits(); err != nil {
		return err
	}

	widthFirst, errW := p.grow(false, fastMode)
	heightFirst, errH := p.grow(true, fastMode)

	var best Rect
	switch {
	case errW != nil && errH != nil:
		return errW
	case errW != nil:
		best = heightFirst
	case errH != nil:
		best = widthFirst
	default:
		best = widthFirst
		if heightFirst.Area() < widthFirst.Area() {
			best = heightFirst
		}
	}

	if !p.repositionAll(best, fastMode) {
		// 同样的输入在同样的画布上是确定性的，不应该发生
		return fmt.Errorf("%w: placement on %vx%v is not reproducible", ErrCanvasLimitExceeded, best.Width, best.Height)
	}
	p.resolution = best
	Logger().Info("rectpack: atlas organized", "elements", len(p.elements), "width", best.Width, "height", best.Height, "fastMode", fastMode)
	return nil
}
