package security

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https public", "https://example.com/image.png", false},
		{"empty", "", true},
		{"plain http", "http://example.com/image.png", true},
		{"no host", "https:///image.png", true},
		{"localhost", "https://localhost/image.png", true},
		{"private 10/8", "https://10.1.2.3/image.png", true},
		{"private 172.20", "https://172.20.0.1/image.png", true},
		{"public 172.32", "https://172.32.0.1/image.png", false},
		{"link local", "https://169.254.1.1/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSafeConversions(t *testing.T) {
	if got := SafeUint8(-4); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	if got := SafeUint8(300); got != 255 {
		t.Errorf("Expected 255, got %d", got)
	}
	if got := SafeUint8(77); got != 77 {
		t.Errorf("Expected 77, got %d", got)
	}

	if v, err := SafeUint32(70000); err != nil || v != 70000 {
		t.Errorf("Expected 70000, got %d (%v)", v, err)
	}
	if _, err := SafeUint32(-1); err == nil {
		t.Error("Expected error for negative value")
	}
}

func TestLimitedReader(t *testing.T) {
	r := NewLimitedReader(strings.NewReader("0123456789"), 4)
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("Expected ErrSizeLimitExceeded, got %v", err)
	}
	if buf.String() != "0123" {
		t.Errorf("Expected %q, got %q", "0123", buf.String())
	}

	r = NewLimitedReader(strings.NewReader("abc"), 10)
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("Expected %q, got %q", "abc", string(data))
	}
}
