package assemble

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"impdex/config"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func colorImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 12), uint8(y * 12), 128, 255})
		}
	}
	return img
}

func TestOptimizeImageScale(t *testing.T) {
	cfg := &config.AssetsConfig{ScaleFactor: 0.5, JPEGQuality: 75}

	data, err := optimizeImage(encodePNG(t, colorImage(20, 20)), cfg, testLogger(t))
	if err != nil {
		t.Fatalf("optimizeImage() error = %v", err)
	}
	if data == nil {
		t.Fatal("optimizeImage() = nil, want scaled image")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if got := img.Bounds().Dy(); got != 10 {
		t.Errorf("height = %d, want 10", got)
	}
}

func TestOptimizeImageScaleDisabled(t *testing.T) {
	for _, factor := range []float64{0.0, 1.0} {
		cfg := &config.AssetsConfig{ScaleFactor: factor, JPEGQuality: 75}
		data, err := optimizeImage(encodePNG(t, colorImage(20, 20)), cfg, testLogger(t))
		if err != nil {
			t.Fatalf("optimizeImage() error = %v", err)
		}
		if data != nil {
			t.Errorf("factor %v: optimizeImage() changed image, want original kept", factor)
		}
	}
}

func TestOptimizeImagePNGTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{200, 100, 50, 128})
		}
	}

	cfg := &config.AssetsConfig{RemovePNGTransparency: true, JPEGQuality: 75}
	data, err := optimizeImage(encodePNG(t, img), cfg, testLogger(t))
	if err != nil {
		t.Fatalf("optimizeImage() error = %v", err)
	}
	if data == nil {
		t.Fatal("optimizeImage() = nil, want flattened image")
	}

	out, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	type opaquer interface{ Opaque() bool }
	o, ok := out.(opaquer)
	if !ok {
		t.Fatalf("Decoded image %T does not report opacity", out)
	}
	if !o.Opaque() {
		t.Error("Flattened image still has transparency")
	}
}

func TestOptimizeImageJPEGReencode(t *testing.T) {
	src := encodeJPEG(t, colorImage(16, 16), 95)

	cfg := &config.AssetsConfig{Optimize: true, JPEGQuality: 60}
	data, err := optimizeImage(src, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("optimizeImage() error = %v", err)
	}
	if data == nil {
		t.Fatal("optimizeImage() = nil, want re-encoded image")
	}
	// re-encoded output carries the density header
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) {
		t.Error("Re-encoded jpeg is missing JFIF APP0 segment")
	}

	// output quality sits at the requested level now, a later run with a
	// slightly higher bar must leave it alone
	cfg.JPEGQuality = 70
	again, err := optimizeImage(data, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("second optimizeImage() error = %v", err)
	}
	if again != nil {
		t.Error("Second pass re-touched an already processed image")
	}
}

func TestOptimizeImageJPEGQualityAlreadyLow(t *testing.T) {
	src := encodeJPEG(t, colorImage(16, 16), 50)

	cfg := &config.AssetsConfig{Optimize: true, JPEGQuality: 80}
	data, err := optimizeImage(src, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("optimizeImage() error = %v", err)
	}
	// quality stays, only the missing density header is inserted
	if data == nil {
		t.Fatal("optimizeImage() = nil, want image with density header")
	}
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) {
		t.Error("JFIF APP0 segment was not inserted")
	}

	// second pass has nothing left to do
	again, err := optimizeImage(data, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("second optimizeImage() error = %v", err)
	}
	if again != nil {
		t.Error("Second pass re-touched an already processed image")
	}
}

func TestOptimizeImageGrayscaleJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(x * 16)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	src := encodeJPEG(t, img, 95)

	cfg := &config.AssetsConfig{Optimize: true, JPEGQuality: 60}
	data, err := optimizeImage(src, cfg, testLogger(t))
	if err != nil {
		t.Fatalf("optimizeImage() error = %v", err)
	}
	if data == nil {
		t.Fatal("optimizeImage() = nil, want re-encoded image")
	}

	out, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("Decoded image is %T, want single channel *image.Gray", out)
	}
}

func TestOptimizeAssets(t *testing.T) {
	_, env := testEnv(t)
	env.Cfg.Assets.ScaleFactor = 0.5

	root := t.TempDir()
	writeTreeFile(t, root, "img/screenshot.png", encodePNG(t, colorImage(20, 20)))
	writeTreeFile(t, root, "static/style.css", []byte("body{}"))

	tr := &Tree{Files: []*File{
		{Rel: "img/screenshot.png", Src: filepath.Join(root, "img", "screenshot.png")},
		{Rel: "static/style.css", Src: filepath.Join(root, "static", "style.css")},
		{Rel: "generated.png", Data: encodePNG(t, colorImage(10, 10))},
	}}

	optimizeAssets(tr, env, testLogger(t))

	if tr.Files[0].Data == nil {
		t.Error("Scanned image was not optimized")
	}
	if tr.Files[1].Data != nil {
		t.Error("Non-raster file was touched")
	}
	if tr.Files[2].Data == nil {
		t.Fatal("Generated image lost its data")
	}
	img, _, err := image.Decode(bytes.NewReader(tr.Files[2].Data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := img.Bounds().Dy(); got != 5 {
		t.Errorf("Generated image height = %d, want 5", got)
	}
}

func TestOptimizeAssetsDisabled(t *testing.T) {
	_, env := testEnv(t)

	orig := encodePNG(t, colorImage(20, 20))
	tr := &Tree{Files: []*File{{Rel: "img/a.png", Data: orig}}}

	optimizeAssets(tr, env, testLogger(t))

	if !bytes.Equal(tr.Files[0].Data, orig) {
		t.Error("Image changed with all processing disabled")
	}
}

func TestIsRasterAsset(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"img/a.png", true},
		{"img/b.JPG", true},
		{"img/c.jpeg", true},
		{"img/d.gif", true},
		{"logo.svg", false},
		{"fonts/FiraSans.woff2", false},
		{"trait.Send.html", false},
	}
	for _, tt := range tests {
		if got := isRasterAsset(tt.rel); got != tt.want {
			t.Errorf("isRasterAsset(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestEnsureFavicon(t *testing.T) {
	t.Run("rasterizes default icon", func(t *testing.T) {
		_, env := testEnv(t)
		tr := &Tree{}

		ensureFavicon(tr, env, testLogger(t))

		var data []byte
		for _, f := range tr.Files {
			if f.Rel == faviconRasterName {
				data = f.Data
			}
		}
		if data == nil {
			t.Fatal("Favicon was not installed")
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
			t.Errorf("Favicon size = %dx%d, want 32x32", img.Bounds().Dx(), img.Bounds().Dy())
		}
	})

	t.Run("keeps existing favicon", func(t *testing.T) {
		_, env := testEnv(t)
		orig := []byte("png bytes")
		tr := &Tree{Files: []*File{{Rel: faviconRasterName, Data: orig}}}

		ensureFavicon(tr, env, testLogger(t))

		count := 0
		for _, f := range tr.Files {
			if f.Rel == faviconRasterName {
				count++
				if !bytes.Equal(f.Data, orig) {
					t.Error("Existing favicon was replaced")
				}
			}
		}
		if count != 1 {
			t.Errorf("Favicon count = %d, want 1", count)
		}
	})

	t.Run("prefers tree logo", func(t *testing.T) {
		_, env := testEnv(t)
		logo := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10" fill="#000"/></svg>`)
		tr := &Tree{Files: []*File{{Rel: "crate-logo.svg", Data: logo}}}

		ensureFavicon(tr, env, testLogger(t))

		var data []byte
		for _, f := range tr.Files {
			if f.Rel == faviconRasterName {
				data = f.Data
			}
		}
		if data == nil {
			t.Fatal("Favicon was not installed from tree logo")
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		// tree logo is a solid black square, built-in icon is mostly white
		r, g, b, _ := img.At(16, 16).RGBA()
		if r>>8 > 0x40 || g>>8 > 0x40 || b>>8 > 0x40 {
			t.Errorf("Favicon center pixel = %v, want black from tree logo", img.At(16, 16))
		}
	})
}
