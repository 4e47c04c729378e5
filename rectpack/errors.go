package rectpack

import "errors"

var (
	// ErrInvalidDimensions 精灵的宽或高小于等于0
	ErrInvalidDimensions = errors.New("rectpack: width and height must be greater than 0")
	// ErrNotOrganized 在 Organize 成功之前请求合成图集
	ErrNotOrganized = errors.New("rectpack: atlas has not been organized")
	// ErrCanvasLimitExceeded 画布增长到上限仍无法放下所有精灵
	ErrCanvasLimitExceeded = errors.New("rectpack: canvas limit exceeded")
	// ErrCoordinateRange 坐标或尺寸超出了位置表的16位范围
	ErrCoordinateRange = errors.New("rectpack: value does not fit in 16 bits")
	// ErrNoPixels 元素只有布局信息，没有像素数据
	ErrNoPixels = errors.New("rectpack: element has no pixel data")
	// ErrShortBuffer 源缓冲区比元素需要的小
	ErrShortBuffer = errors.New("rectpack: source buffer too small")
	// ErrOutOfBounds 元素连同边框超出了目标缓冲区
	ErrOutOfBounds = errors.New("rectpack: element does not fit in destination buffer")
	// ErrSizeMismatch 图像尺寸与元素尺寸不一致
	ErrSizeMismatch = errors.New("rectpack: image size does not match element")
)
