package main

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"atlasbake/rectpack"

	"github.com/disintegration/imaging"
	"github.com/maruel/natural"
	_ "golang.org/x/image/webp"
)

// imageExtensions 是输入目录中会被读取的图片格式，bmp/tiff 由 imaging 注册，webp 来自 x/image
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// sprite 是一个已解码、可能已裁切的输入图片
type sprite struct {
	path       string
	name       string
	img        *image.NRGBA
	sourceSize image.Point     // 原始图片尺寸
	sourceRect image.Rectangle // 裁切后保留的区域，相对于原始图片
	element    *rectpack.Element
}

func (s *sprite) isTrimmed() bool {
	return s.sourceRect.Min.X > 0 || s.sourceRect.Min.Y > 0 ||
		s.sourceRect.Dx() < s.sourceSize.X || s.sourceRect.Dy() < s.sourceSize.Y
}

// Parallel 把 [start, end) 的任务分批交给与CPU核心数相同的 goroutine 执行
func Parallel(start, end int, fn func(i int)) {
	numGoroutines := runtime.NumCPU()
	if end-start < numGoroutines {
		// 如果任务数量少于CPU核心数，直接顺序执行
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	batchSize := (end - start + numGoroutines - 1) / numGoroutines
	for i := start; i < end; i += batchSize {
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for j := from; j < to && j < end; j++ {
				fn(j)
			}
		}(i, i+batchSize)
	}
	wg.Wait()
}

// GetImageBBox 检测图像的透明区域，返回 alpha 大于阈值的像素的边界。
// 图像完全透明时返回整个图像的边界。
func GetImageBBox(img *image.NRGBA, alphaThreshold uint32) image.Rectangle {
	bounds := img.Bounds()
	if bounds.Empty() {
		return image.Rectangle{}
	}
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X, bounds.Min.Y
	found := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if uint32(img.Pix[i+3]) > alphaThreshold { // 直接访问alpha通道
				found = true
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
			i += 4
		}
	}
	if !found {
		return bounds
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// readImageFiles 列出输入目录中所有支持的图片文件
func readImageFiles(options *Options) ([]string, error) {
	if _, err := os.Stat(options.InputDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("输入目录 %s 不存在", options.InputDir)
	}
	entries, err := os.ReadDir(options.InputDir)
	if err != nil {
		return nil, err
	}
	var imagePaths []string
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		imagePaths = append(imagePaths, filepath.Join(options.InputDir, entry.Name()))
	}
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("输入目录 %s 中没有找到任何图片文件", options.InputDir)
	}

	// 是否按文件名排序
	if options.IsFilesSort {
		sort.Sort(natural.StringSlice(imagePaths))
	}
	slog.Info("找到图片文件", "count", len(imagePaths), "dir", options.InputDir)
	return imagePaths, nil
}

// processImages 并行解码图片，需要时裁切透明边缘
func processImages(paths []string, options *Options) ([]*sprite, error) {
	start := time.Now()
	defer func() {
		debugInfo.ProcessImageTime += time.Since(start)
	}()

	sprites := make([]*sprite, len(paths))
	errs := make([]error, len(paths))
	Parallel(0, len(paths), func(i int) {
		path := paths[i]
		src, err := imaging.Open(path)
		if err != nil {
			errs[i] = fmt.Errorf("无法解码图片 %s: %w", path, err)
			return
		}
		img := imaging.Clone(src)
		s := &sprite{
			path:       path,
			name:       filepath.Base(path),
			img:        img,
			sourceSize: img.Bounds().Size(),
			sourceRect: img.Bounds(),
		}
		if options.IsTrimTransparent {
			s.sourceRect = GetImageBBox(img, options.TransparencyThreshold)
			s.img = imaging.Crop(img, s.sourceRect)
		}
		sprites[i] = s
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if options.IsTrimTransparent {
		slog.Info("已开启透明区域裁切", "threshold", options.TransparencyThreshold)
	}
	return sprites, nil
}

// packing 把所有精灵注册到打包器，复制像素并计算布局
func packing(sprites []*sprite, options *Options) (*rectpack.Packer, error) {
	start := time.Now()
	defer func() {
		debugInfo.PackTime += time.Since(start)
	}()

	sortFunc, err := rectpack.ResolveSort(options.SortBy)
	if err != nil {
		return nil, err
	}
	packer := rectpack.NewPacker(options.XSpacing, options.YSpacing)
	packer.SetMaxSize(options.MaxSize)
	for _, s := range sprites {
		b := s.img.Bounds()
		element, err := packer.AddElement(s.name, b.Dx(), b.Dy())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.path, err)
		}
		if err := element.CopyFromImage(s.img); err != nil {
			return nil, fmt.Errorf("%s: %w", s.path, err)
		}
		s.element = element
	}
	if sortFunc != nil {
		packer.Sort(sortFunc, false)
	}
	if err := packer.Organize(options.FastMode); err != nil {
		return nil, err
	}
	return packer, nil
}

// outputResult 输出打包结果
func outputResult(packer *rectpack.Packer) {
	res := packer.Resolution()
	used := 0
	for _, e := range packer.Elements() {
		used += e.Rect().Area()
	}
	slog.Info("打包完成",
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"sprites", packer.Len(),
		"usedRate", fmt.Sprintf("%.2f%%", float64(used)/float64(res.Area())*100))
}

// writeAtlas 保存图集图片、alpha 图、位置表和JSON元数据
func writeAtlas(packer *rectpack.Packer, sprites []*sprite, options *Options) error {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	start := time.Now()
	imagePath := filepath.Join(options.OutputDir, atlasImageName)
	if err := packer.SavePNG(imagePath); err != nil {
		return err
	}
	if options.WriteAlpha {
		if err := packer.SaveAlphaPNG(filepath.Join(options.OutputDir, atlasAlphaName)); err != nil {
			return err
		}
	}
	debugInfo.CreateAtlasImageTime += time.Since(start)

	tablePath := filepath.Join(options.OutputDir, atlasTableName)
	if err := packer.WriteTable(tablePath, options.Compress); err != nil {
		return fmt.Errorf("写入位置表失败: %w", err)
	}
	jsonPath := filepath.Join(options.OutputDir, atlasJsonName)
	if err := generateAtlasJSON(packer, sprites, imagePath, jsonPath); err != nil {
		return fmt.Errorf("生成JSON元数据失败: %w", err)
	}
	slog.Info("图集已保存", "image", imagePath, "table", tablePath, "meta", jsonPath)
	return nil
}

// pack 读取输入目录，生成图集及其元数据
func pack(options *Options) error {
	imagePaths, err := readImageFiles(options)
	if err != nil {
		return err
	}
	sprites, err := processImages(imagePaths, options)
	if err != nil {
		return err
	}
	packer, err := packing(sprites, options)
	if err != nil {
		return err
	}
	outputResult(packer)
	return writeAtlas(packer, sprites, options)
}
