package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"atlasbake/rectpack"

	"github.com/disintegration/imaging"
)

// writeTestImages 在 dir 中生成几张测试图片：一张纯色、一张渐变、一张带透明边的图片。
func writeTestImages(t *testing.T, dir string) map[string]*image.NRGBA {
	t.Helper()
	images := map[string]*image.NRGBA{}

	images["a.png"] = imaging.New(20, 10, color.NRGBA{255, 0, 0, 255})

	gradient := imaging.New(7, 13, color.NRGBA{})
	for y := 0; y < 13; y++ {
		for x := 0; x < 7; x++ {
			gradient.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), uint8(y * 15), 128, 255})
		}
	}
	images["b10.png"] = gradient

	framed := imaging.New(16, 16, color.NRGBA{})
	for y := 3; y < 13; y++ {
		for x := 4; x < 12; x++ {
			framed.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 255})
		}
	}
	images["b2.png"] = framed

	for name, img := range images {
		if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	return images
}

func loadNRGBA(t *testing.T, path string) *image.NRGBA {
	t.Helper()
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return imaging.Clone(img)
}

func TestGetImageBBox(t *testing.T) {
	img := imaging.New(10, 8, color.NRGBA{})
	img.SetNRGBA(2, 3, color.NRGBA{A: 10})
	img.SetNRGBA(6, 5, color.NRGBA{A: 255})
	if got := GetImageBBox(img, 0); got != image.Rect(2, 3, 7, 6) {
		t.Errorf("bbox = %v, want (2,3)-(7,6)", got)
	}
	if got := GetImageBBox(img, 10); got != image.Rect(6, 5, 7, 6) {
		t.Errorf("bbox with threshold = %v, want (6,5)-(7,6)", got)
	}
	empty := imaging.New(4, 4, color.NRGBA{})
	if got := GetImageBBox(empty, 0); got != empty.Bounds() {
		t.Errorf("transparent image bbox = %v, want full bounds", got)
	}
}

func TestReadImageFilesNaturalSort(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"s10.png", "s2.png", "s1.png"} {
		if err := imaging.Save(imaging.New(2, 2, color.White), filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644)
	paths, err := readImageFiles(&Options{InputDir: dir, IsFilesSort: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"s1.png", "s2.png", "s10.png"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, filepath.Base(p), want[i])
		}
	}
}

func TestReadImageFilesEmpty(t *testing.T) {
	if _, err := readImageFiles(&Options{InputDir: t.TempDir()}); err == nil {
		t.Error("empty input directory accepted")
	}
	if _, err := readImageFiles(&Options{InputDir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("missing input directory accepted")
	}
}

func TestPackAndUnpack(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	images := writeTestImages(t, inputDir)

	options := Options{
		InputDir:          inputDir,
		OutputDir:         outputDir,
		XSpacing:          2,
		YSpacing:          2,
		IsFilesSort:       true,
		SortBy:            "area",
		IsTrimTransparent: true,
		MaxSize:           rectpack.DefaultMaxSize,
		WriteAlpha:        true,
		Compress:          true,
	}
	if err := pack(&options); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{atlasImageName, atlasAlphaName, atlasTableName, atlasJsonName} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	// 位置表与图集图片一致
	tablePath := filepath.Join(outputDir, atlasTableName)
	packer := rectpack.NewPacker(0, 0)
	if err := packer.ReadTable(tablePath, true); err != nil {
		t.Fatal(err)
	}
	if packer.Len() != len(images) {
		t.Fatalf("table has %d elements, want %d", packer.Len(), len(images))
	}
	atlas := loadNRGBA(t, filepath.Join(outputDir, atlasImageName))
	if w, h := atlas.Bounds().Dx(), atlas.Bounds().Dy(); w != 128 || h != 128 {
		t.Errorf("atlas is %dx%d, want 128x128", w, h)
	}
	for _, e := range packer.Elements() {
		r := e.Rect()
		src := images[e.Name]
		if src == nil {
			t.Fatalf("unexpected element %q", e.Name)
		}
		if e.Name == "b2.png" && (r.Width != 8 || r.Height != 10) {
			t.Errorf("trimmed b2.png is %dx%d, want 8x10", r.Width, r.Height)
		}
	}

	meta, err := readAtlasJSON(filepath.Join(outputDir, atlasJsonName))
	if err != nil {
		t.Fatal(err)
	}
	if info := meta.SpriteList["b2.png"]; !info.Trimmed || info.SourceRect == nil ||
		info.SourceRect.X != 4 || info.SourceRect.Y != 3 {
		t.Errorf("b2.png meta = %+v", info)
	}
	// 没有被裁切的精灵不输出 sourceRect
	if info := meta.SpriteList["a.png"]; info.Trimmed || info.SourceRect != nil {
		t.Errorf("a.png meta = %+v", info)
	}
	raw, err := os.ReadFile(filepath.Join(outputDir, atlasJsonName))
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(raw, []byte(`"sourceRect"`)); n != 1 {
		t.Errorf("atlas.json has %d sourceRect entries, want 1", n)
	}

	unpackDir := t.TempDir()
	unpackOptions := Options{UnpackPath: tablePath, OutputDir: unpackDir, Compress: true}
	if err := unpack(&unpackOptions); err != nil {
		t.Fatal(err)
	}
	for name, want := range images {
		got := loadNRGBA(t, filepath.Join(unpackDir, name))
		if got.Bounds() != want.Bounds() || !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("unpacked %s differs from the input", name)
		}
	}
}

func TestPackingInvalidSort(t *testing.T) {
	s := &sprite{name: "a", img: imaging.New(4, 4, color.White)}
	if _, err := packing([]*sprite{s}, &Options{SortBy: "diagonal", MaxSize: 256}); err == nil {
		t.Error("unknown sort accepted")
	}
}

func TestUnpackManySprites(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	images := map[string]*image.NRGBA{}
	// 数量超过CPU核心数，解包会走并行分支
	for i := 0; i < 64; i++ {
		img := imaging.New(4+i%7, 3+i%5, color.NRGBA{uint8(i * 3), uint8(255 - i), 7, 255})
		name := fmt.Sprintf("s%d.png", i)
		if err := imaging.Save(img, filepath.Join(inputDir, name)); err != nil {
			t.Fatal(err)
		}
		images[name] = img
	}
	options := Options{InputDir: inputDir, OutputDir: outputDir, XSpacing: 2, YSpacing: 2, MaxSize: rectpack.DefaultMaxSize}
	if err := pack(&options); err != nil {
		t.Fatal(err)
	}
	unpackDir := t.TempDir()
	if err := unpack(&Options{UnpackPath: filepath.Join(outputDir, atlasTableName), OutputDir: unpackDir}); err != nil {
		t.Fatal(err)
	}
	for name, want := range images {
		got := loadNRGBA(t, filepath.Join(unpackDir, name))
		if got.Bounds() != want.Bounds() || !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("unpacked %s differs from the input", name)
		}
	}
}

func TestSaveSpriteOutOfBounds(t *testing.T) {
	atlas := imaging.New(16, 16, color.White)
	inside, _ := rectpack.NewElement("inside.png", 4, 4)
	outside, _ := rectpack.NewElement("outside.png", 20, 4)
	dir := t.TempDir()
	if err := saveSprite(atlas, atlas.Bounds(), inside, nil, dir); err != nil {
		t.Fatal(err)
	}
	if err := saveSprite(atlas, atlas.Bounds(), outside, nil, dir); err == nil {
		t.Error("sprite outside the atlas was saved")
	}
	if _, err := os.Stat(filepath.Join(dir, "outside.png")); !os.IsNotExist(err) {
		t.Errorf("outside.png exists: %v", err)
	}
}
