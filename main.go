package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"atlasbake/rectpack"
)

const (
	VERSION = "0.2.0"

	atlasImageName = "atlas.png"
	atlasAlphaName = "atlas_alpha.png"
	atlasTableName = "atlas.table"
	atlasJsonName  = "atlas.json"
)

var debugInfo DebugInfo

type DebugInfo struct {
	TotalTime            time.Duration
	PackTime             time.Duration
	ProcessImageTime     time.Duration
	CreateAtlasImageTime time.Duration
	CreateJsonTime       time.Duration
}

type Options struct {
	UnpackPath            string // 解包时使用的位置表路径
	InputDir              string // 输入目录
	OutputDir             string // 输出目录
	XSpacing              int    // 水平间距
	YSpacing              int    // 垂直间距
	FastMode              bool   // 快速模式，不重置行游标
	IsFilesSort           bool   // 是否按文件名自然排序
	SortBy                string // 放置优先级排序方式
	IsTrimTransparent     bool   // 是否修剪透明部分
	TransparencyThreshold uint32 // 透明度阈值
	MaxSize               int    // 画布最大边长
	WriteAlpha            bool   // 是否额外输出 alpha 图
	Compress              bool   // 位置表是否使用 zlib 压缩
	Verbose               bool   // 输出调试日志
}

// SpriteInfo 存储精灵图的信息
type SpriteInfo struct {
	Filename string `json:"filename"`
	Region   struct {
		X int `json:"x"`
		Y int `json:"y"`
		W int `json:"w"`
		H int `json:"h"`
	} `json:"region"`
	SourceSize struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"sourceSize"`
	SourceRect *SourceRect `json:"sourceRect,omitempty"` // 只有被裁切的精灵才有
	Trimmed    bool        `json:"trimmed"`
}

// SourceRect 是裁切后保留的区域在原始图片中的位置
type SourceRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// AtlasData 存储图集的元数据
type AtlasData struct {
	Meta struct {
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
	AtlasName string `json:"atlasName"`
	TotalSize struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"totalSize"`
	Spacing struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"spacing"`
	SpriteList map[string]SpriteInfo `json:"spriteList"`
}

// generateAtlasJSON 生成图集的JSON元数据，精灵的位置取自打包器
func generateAtlasJSON(packer *rectpack.Packer, sprites []*sprite, atlasImagePath, outputPath string) error {
	start := time.Now()
	defer func() {
		debugInfo.CreateJsonTime = time.Since(start)
	}()

	var data AtlasData
	data.Meta.Version = VERSION
	data.Meta.Timestamp = time.Now().Format("2006-01-02 15:04:05")
	data.AtlasName = filepath.Base(atlasImagePath)
	res := packer.Resolution()
	data.TotalSize.W = res.Width
	data.TotalSize.H = res.Height
	data.Spacing.X, data.Spacing.Y = packer.Spacing()
	data.SpriteList = make(map[string]SpriteInfo, len(sprites))

	for _, s := range sprites {
		r := s.element.Rect()
		info := SpriteInfo{Filename: s.name}
		info.Region.X = r.X
		info.Region.Y = r.Y
		info.Region.W = r.Width
		info.Region.H = r.Height
		info.SourceSize.W = s.sourceSize.X
		info.SourceSize.H = s.sourceSize.Y
		if s.isTrimmed() {
			info.Trimmed = true
			info.SourceRect = &SourceRect{
				X: s.sourceRect.Min.X,
				Y: s.sourceRect.Min.Y,
				W: s.sourceRect.Dx(),
				H: s.sourceRect.Dy(),
			}
		}
		data.SpriteList[s.name] = info
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, jsonData, 0644)
}

// readAtlasJSON 读取 generateAtlasJSON 生成的元数据
func readAtlasJSON(path string) (*AtlasData, error) {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data AtlasData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	return &data, nil
}

func flagArgs() Options {
	unpackPath := flag.String("unpack", "", "解包: 位置表路径 (图集图片和JSON需在同一目录)")
	inputDirPtr := flag.String("input", "input", "输入目录")
	outputDirPtr := flag.String("output", "output", "输出目录")
	xSpacingPtr := flag.Int("xspacing", 2, "水平间距 (奇数向上取偶)")
	ySpacingPtr := flag.Int("yspacing", 2, "垂直间距 (奇数向上取偶)")
	fastPtr := flag.Bool("fast", false, "快速模式")
	sortPtr := flag.Bool("sort", true, "按文件名自然排序")
	sortByPtr := flag.String("sort-by", "none", "放置顺序 (none, area, perimeter, maxside, minside, height, width)")
	trimPtr := flag.Bool("trim", false, "修剪透明部分")
	thresholdPtr := flag.Uint("threshold", 0, "透明度阈值")
	maxSizePtr := flag.Int("max-size", rectpack.DefaultMaxSize, "画布最大边长")
	alphaPtr := flag.Bool("alpha", false, "额外输出 alpha 灰度图")
	compressPtr := flag.Bool("compress", false, "位置表使用 zlib 压缩")
	verbosePtr := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	return Options{
		UnpackPath:            *unpackPath,
		InputDir:              *inputDirPtr,
		OutputDir:             *outputDirPtr,
		XSpacing:              *xSpacingPtr,
		YSpacing:              *ySpacingPtr,
		FastMode:              *fastPtr,
		IsFilesSort:           *sortPtr,
		SortBy:                *sortByPtr,
		IsTrimTransparent:     *trimPtr,
		TransparencyThreshold: uint32(*thresholdPtr),
		MaxSize:               *maxSizePtr,
		WriteAlpha:            *alphaPtr,
		Compress:              *compressPtr,
		Verbose:               *verbosePtr,
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	rectpack.SetLogger(logger)
}

func main() {
	options := flagArgs()
	setupLogger(options.Verbose)

	if options.UnpackPath != "" {
		if err := unpack(&options); err != nil {
			fmt.Fprintf(os.Stderr, "解包失败: %v\n", err)
			os.Exit(1)
		}
		return
	}

	start := time.Now()
	if err := pack(&options); err != nil {
		fmt.Fprintf(os.Stderr, "打包失败: %v\n", err)
		os.Exit(1)
	}
	debugInfo.TotalTime = time.Since(start)
	slog.Debug("耗时统计",
		"图片预处理", debugInfo.ProcessImageTime,
		"算法", debugInfo.PackTime,
		"图集创建", debugInfo.CreateAtlasImageTime,
		"JSON元数据", debugInfo.CreateJsonTime,
		"总耗时", debugInfo.TotalTime)
}
