//go:build ignore

// gen_fixtures creates a small WordPress uploads tree and a matching SQL
// dump for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
//
// Layout:
//
//	<dir>/uploads/2024/01/banner.jpg            referenced
//	<dir>/uploads/2024/01/banner-150x150.jpg    derivative
//	<dir>/uploads/2024/01/banner-scaled.jpg     derivative
//	<dir>/uploads/2024/02/card-N.png            card-1 referenced, others orphaned
//	<dir>/uploads/logo.png                      referenced, large enough to resize
//	<dir>/dump.sql
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

const dump = `-- MySQL dump
INSERT INTO wp_posts VALUES (1,'<img src="https://example.com/wp-content/uploads/2024/01/banner.jpg" />');
INSERT INTO wp_posts VALUES (2,'<figure><img src="/wp-content/uploads/2024/02/card-1.png"></figure>');
INSERT INTO wp_options VALUES (3,'site_logo','logo.png');
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	uploads := filepath.Join(dir, "uploads")
	for _, sub := range []string{"2024/01", "2024/02"} {
		if err := os.MkdirAll(filepath.Join(uploads, filepath.FromSlash(sub)), 0o755); err != nil {
			panic(err)
		}
	}

	banner := gradient(400, 225)
	writeJPEG(filepath.Join(uploads, "2024", "01", "banner.jpg"), banner)
	writeJPEG(filepath.Join(uploads, "2024", "01", "banner-150x150.jpg"), gradient(150, 150))
	writeJPEG(filepath.Join(uploads, "2024", "01", "banner-scaled.jpg"), banner)

	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		writePNG(filepath.Join(uploads, "2024", "02", name), solidWithBorder(200, 150, uint8(i*60)))
	}

	// Wider than the fast profile's 1920px bound.
	writePNG(filepath.Join(uploads, "logo.png"), alphaGradient(2400, 300))

	if err := os.WriteFile(filepath.Join(dir, "dump.sql"), []byte(dump), 0o644); err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 7 images and dump.sql in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		panic(err)
	}
}
