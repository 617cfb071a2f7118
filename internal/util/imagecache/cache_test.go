package imagecache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func TestGenerateFilename(t *testing.T) {
	a := generateFilename("https://example.com/a.png?size=large")
	if !strings.HasSuffix(a, ".png") || len(a) != 32+4 {
		t.Errorf("Unexpected filename: %s", a)
	}
	if a != generateFilename("https://example.com/a.png?size=large") {
		t.Error("Expected deterministic filename")
	}
	if got := generateFilename("https://example.com/image"); !strings.HasSuffix(got, ".img") {
		t.Errorf("Expected .img fallback, got %s", got)
	}
}

func TestDownloadAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	opts := CacheOptions{CacheDir: t.TempDir(), SkipURLValidation: true}
	ctx := context.Background()

	path, err := DownloadAndCache(ctx, srv.URL+"/pic.png", opts)
	if err != nil {
		t.Fatalf("DownloadAndCache failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("Expected cached content, got %q", string(data))
	}

	if _, err := DownloadAndCache(ctx, srv.URL+"/pic.png", opts); err != nil {
		t.Fatalf("second DownloadAndCache failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", hits.Load())
	}

	opts.SkipURLValidation = false
	if _, err := DownloadAndCache(ctx, srv.URL+"/pic.png", opts); err == nil {
		t.Error("Expected local plain-HTTP URL to be rejected")
	}
}
