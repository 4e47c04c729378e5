package rectpack

import (
	"cmp"
	"fmt"
	"strings"
)

// SortFunc 定义矩形尺寸比较函数的原型
// 返回值:
//
//	-1: a 排在 b 之前
//	 0: a == b
//	 1: a 排在 b 之后
type SortFunc func(a, b Size) int

// SortArea 按矩形面积降序排序(从大到小)
func SortArea(a, b Size) int {
	return cmp.Compare(b.Area(), a.Area())
}

// SortPerimeter 按矩形周长降序排序(从大到小)
func SortPerimeter(a, b Size) int {
	return cmp.Compare(b.Perimeter(), a.Perimeter())
}

// SortMaxSide 按矩形最长边降序排序(从大到小)
func SortMaxSide(a, b Size) int {
	return cmp.Compare(b.MaxSide(), a.MaxSide())
}

// SortMinSide 按矩形最短边降序排序(从大到小)
func SortMinSide(a, b Size) int {
	return cmp.Compare(b.MinSide(), a.MinSide())
}

// SortHeight 按高度降序排序，高度相同时按宽度降序。
// 行式放置对这种顺序最友好。
func SortHeight(a, b Size) int {
	if c := cmp.Compare(b.Height, a.Height); c != 0 {
		return c
	}
	return cmp.Compare(b.Width, a.Width)
}

// SortWidth 按宽度降序排序，宽度相同时按高度降序。
func SortWidth(a, b Size) int {
	if c := cmp.Compare(b.Width, a.Width); c != 0 {
		return c
	}
	return cmp.Compare(b.Height, a.Height)
}

// ResolveSort 根据名称返回排序函数。"none" 或空字符串返回 nil，表示保持插入顺序。
func ResolveSort(name string) (SortFunc, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "area":
		return SortArea, nil
	case "perimeter":
		return SortPerimeter, nil
	case "maxside":
		return SortMaxSide, nil
	case "minside":
		return SortMinSide, nil
	case "height":
		return SortHeight, nil
	case "width":
		return SortWidth, nil
	}
	return nil, fmt.Errorf("rectpack: unknown sort %q (none, area, perimeter, maxside, minside, height, width)", name)
}
