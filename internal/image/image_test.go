package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/basin/internal/security"
	"github.com/jmylchreest/basin/pkg/raster"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	path := filepath.Join(dir, "test.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	return path
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 6, 4)

	img, err := NewFileLoader().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Errorf("Expected 6x4, got %v", img.Bounds())
	}

	if _, err := NewFileLoader().Load(""); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := NewFileLoader().Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := NewFileLoader().Load(dir); err == nil {
		t.Error("Expected error for directory")
	}

	small := &FileLoader{MaxPixels: 10}
	if _, err := small.Load(path); !errors.Is(err, security.ErrSizeLimitExceeded) {
		t.Errorf("Expected ErrSizeLimitExceeded, got %v", err)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader().Load(bad); err == nil {
		t.Error("Expected error for invalid image data")
	}
	if err := ValidateImagePath(bad); err == nil {
		t.Error("Expected ValidateImagePath to reject invalid image data")
	}
	if err := ValidateImagePath(path); err != nil {
		t.Errorf("ValidateImagePath failed: %v", err)
	}
}

func TestSmartLoaderURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	l := NewSmartLoader()
	if _, err := l.Load(srv.URL + "/x.png"); err == nil {
		t.Error("Expected plain HTTP on a local host to be rejected")
	}

	l.AllowInsecure = true
	img, err := l.Load(srv.URL + "/x.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Errorf("Expected width 3, got %d", img.Bounds().Dx())
	}

	l.CacheDir = t.TempDir()
	if _, err := l.Load(srv.URL + "/x.png"); err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	entries, err := os.ReadDir(l.CacheDir)
	if err != nil || len(entries) != 1 {
		t.Errorf("Expected one cached file, got %d (%v)", len(entries), err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 7, 3)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, h, err := GetImageDimensions(f)
	if err != nil {
		t.Fatalf("GetImageDimensions failed: %v", err)
	}
	if w != 7 || h != 3 {
		t.Errorf("Expected 7x3, got %dx%d", w, h)
	}

	if _, _, err := GetImageDimensions(bytes.NewReader([]byte("nope"))); err == nil {
		t.Error("Expected error for invalid image data")
	}
}

func TestFileLoaderContext(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 2, 2)

	var l Loader = NewFileLoader()
	if _, err := l.LoadContext(context.Background(), path); err != nil {
		t.Fatalf("LoadContext failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.LoadContext(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWritePNGKeeps16Bit(t *testing.T) {
	l := raster.NewLabels(2, 1)
	l.Pix[1] = 4000
	gray, err := LabelsToGray16(l)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, gray); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Expected a PNG: %v", err)
	}
	g16, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("Expected a 16-bit gray image, got %T", img)
	}
	if got := g16.Gray16At(1, 0).Y; got != 4000 {
		t.Errorf("Expected label 4000, got %d", got)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.PNG":  true,
		"b.tiff": true,
		"c.bmp":  true,
		"d.txt":  false,
		"e":      false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q): expected %v, got %v", name, want, got)
		}
	}
}

func TestLabelsToGray16(t *testing.T) {
	l := raster.NewLabels(2, 2)
	copy(l.Pix, []int{0, 1, 300, 65535})
	img, err := LabelsToGray16(l)
	if err != nil {
		t.Fatalf("LabelsToGray16 failed: %v", err)
	}
	if got := img.Gray16At(0, 1).Y; got != 300 {
		t.Errorf("Expected 300, got %d", got)
	}

	l.Pix[0] = 70000
	if _, err := LabelsToGray16(l); !errors.Is(err, ErrTooManyLabels) {
		t.Errorf("Expected ErrTooManyLabels, got %v", err)
	}
}

func TestRegionPreview(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 21, G: 40, B: 60, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 200, G: 100, B: 0, A: 255})

	l := raster.NewLabels(3, 1)
	copy(l.Pix, []int{0, 0, 1})

	out, err := RegionPreview(img, l)
	if err != nil {
		t.Fatalf("RegionPreview failed: %v", err)
	}
	want := color.NRGBA{R: 16, G: 30, B: 45, A: 255}
	if got := out.NRGBAAt(1, 0); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got := out.NRGBAAt(2, 0); got != (color.NRGBA{R: 200, G: 100, B: 0, A: 255}) {
		t.Errorf("Unexpected color for single-pixel region: %v", got)
	}

	if _, err := RegionPreview(img, raster.NewLabels(2, 1)); !errors.Is(err, raster.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestChannelToGray(t *testing.T) {
	c := raster.NewChannel8(2, 1)
	c.Pix[1] = 255
	g := ChannelToGray(c)
	if g.GrayAt(1, 0).Y != 255 || g.GrayAt(0, 0).Y != 0 {
		t.Errorf("Unexpected gray values: %v", g.Pix)
	}
}
