package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"atlasbake/rectpack"

	"github.com/disintegration/imaging"
)

// unpack 根据位置表把图集拆回单独的精灵图片。
// 图集图片与位置表同名（扩展名为 .png），同目录下的JSON元数据存在时会还原被裁切的透明边缘。
func unpack(options *Options) error {
	start := time.Now()
	defer func() {
		slog.Debug("解包耗时", "elapsed", time.Since(start))
	}()
	if options.UnpackPath == "" {
		return fmt.Errorf("未指定解包路径")
	}

	packer := rectpack.NewPacker(0, 0)
	if err := packer.ReadTable(options.UnpackPath, options.Compress); err != nil {
		return fmt.Errorf("读取位置表失败: %w", err)
	}

	atlasDir := filepath.Dir(options.UnpackPath)
	atlasImagePath := strings.TrimSuffix(options.UnpackPath, filepath.Ext(options.UnpackPath)) + ".png"
	atlasImg, err := imaging.Open(atlasImagePath)
	if err != nil {
		return fmt.Errorf("打开图集图片失败: %w", err)
	}

	var meta *AtlasData
	if data, err := readAtlasJSON(filepath.Join(atlasDir, atlasJsonName)); err == nil {
		meta = data
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	bounds := atlasImg.Bounds()
	elements := packer.Elements()
	errs := make([]error, len(elements))
	Parallel(0, len(elements), func(i int) {
		errs[i] = saveSprite(atlasImg, bounds, elements[i], meta, options.OutputDir)
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("图集解包完成", "sprites", packer.Len(), "output", options.OutputDir)
	return nil
}

// saveSprite 从图集中裁出一个精灵并保存，需要时还原被裁切的透明边缘
func saveSprite(atlasImg image.Image, bounds image.Rectangle, element *rectpack.Element, meta *AtlasData, outputDir string) error {
	rect := element.Rect()
	if !rect.Image().In(bounds) {
		return fmt.Errorf("%q 的区域 %s 超出了图集 %v", element.Name, rect.String(), bounds)
	}
	subImg := imaging.Crop(atlasImg, rect.Image())

	// 如果需要处理修剪的图片
	if meta != nil {
		if info, ok := meta.SpriteList[element.Name]; ok && info.Trimmed && info.SourceRect != nil {
			finalImg := imaging.New(info.SourceSize.W, info.SourceSize.H, color.NRGBA{0, 0, 0, 0})
			subImg = imaging.Paste(finalImg, subImg, image.Pt(info.SourceRect.X, info.SourceRect.Y))
		}
	}

	outputPath := filepath.Join(outputDir, filepath.Base(element.Name))
	// imaging 无法编码的格式（如 webp）改为保存成 png
	if _, err := imaging.FormatFromFilename(outputPath); err != nil {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".png"
	}
	if err := imaging.Save(subImg, outputPath); err != nil {
		return fmt.Errorf("保存 %s 失败: %w", outputPath, err)
	}
	return nil
}
