// Package compression reads and writes label raster dumps, optionally
// wrapped in xz or zstd.
package compression

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/basin/internal/security"
	"github.com/jmylchreest/basin/pkg/raster"
)

const (
	magic   = "BSNL"
	version = 1

	headerSize = len(magic) + 1 + 4 + 4

	// DefaultMaxBytes bounds the decompressed size of a dump.
	DefaultMaxBytes = 512 * 1024 * 1024
)

var (
	// ErrBadMagic is returned when the stream is not a label dump.
	ErrBadMagic = errors.New("compression: not a label dump")
	// ErrUnsupportedVersion is returned for dumps written by a newer format.
	ErrUnsupportedVersion = errors.New("compression: unsupported dump version")
	// ErrLabelOverflow is returned when a label does not fit in int32.
	ErrLabelOverflow = errors.New("compression: label does not fit in int32")
)

// Codec selects the compression wrapped around a dump.
type Codec int

const (
	// Raw writes the dump uncompressed.
	Raw Codec = iota
	// XZ wraps the dump in an xz stream.
	XZ
	// Zstd wraps the dump in a zstd stream.
	Zstd
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case Raw:
		return "raw"
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// CodecForPath picks the codec from the file extension: .xz, .zst or
// .zstd, anything else is Raw.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return XZ
	case ".zst", ".zstd":
		return Zstd
	default:
		return Raw
	}
}

// WriteLabels writes labels to w as a dump wrapped in codec.
func WriteLabels(w io.Writer, labels *raster.Labels, codec Codec) error {
	width, err := security.SafeUint32(labels.Width)
	if err != nil {
		return fmt.Errorf("invalid width: %w", err)
	}
	height, err := security.SafeUint32(labels.Height)
	if err != nil {
		return fmt.Errorf("invalid height: %w", err)
	}

	var cw io.WriteCloser
	switch codec {
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
		cw = xw
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		cw = zw
	case Raw:
		cw = nopCloser{w}
	default:
		return fmt.Errorf("unknown codec: %v", codec)
	}

	bw := bufio.NewWriter(cw)
	header := make([]byte, headerSize)
	copy(header, magic)
	header[4] = version
	binary.LittleEndian.PutUint32(header[5:], width)
	binary.LittleEndian.PutUint32(header[9:], height)
	if _, err := bw.Write(header); err != nil {
		_ = cw.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	var buf [4]byte
	for _, v := range labels.Pix {
		if v < math.MinInt32 || v > math.MaxInt32 {
			_ = cw.Close()
			return fmt.Errorf("%w: %d", ErrLabelOverflow, v)
		}
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(v)))
		if _, err := bw.Write(buf[:]); err != nil {
			_ = cw.Close()
			return fmt.Errorf("failed to write labels: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		_ = cw.Close()
		return fmt.Errorf("failed to flush labels: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish %s stream: %w", codec, err)
	}
	return nil
}

// ReadLabels reads a dump from r. At most maxBytes of decompressed data are
// accepted; a non-positive maxBytes uses DefaultMaxBytes.
func ReadLabels(r io.Reader, codec Codec, maxBytes int64) (*raster.Labels, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var src io.Reader
	switch codec {
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		src = xr
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		src = zr
	case Raw:
		src = r
	default:
		return nil, fmt.Errorf("unknown codec: %v", codec)
	}
	lr := bufio.NewReader(security.NewLimitedReader(src, maxBytes))

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(lr, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Equal(header[:4], []byte(magic)) {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, header[:4])
	}
	if header[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header[4])
	}
	width := int64(binary.LittleEndian.Uint32(header[5:]))
	height := int64(binary.LittleEndian.Uint32(header[9:]))
	if need := int64(headerSize) + width*height*4; need > maxBytes {
		return nil, fmt.Errorf("%w: %dx%d dump needs %d bytes, limit is %d",
			security.ErrSizeLimitExceeded, width, height, need, maxBytes)
	}

	labels := raster.NewLabels(int(width), int(height))
	var buf [4]byte
	for i := range labels.Pix {
		if _, err := io.ReadFull(lr, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read label %d: %w", i, err)
		}
		labels.Pix[i] = int(int32(binary.LittleEndian.Uint32(buf[:])))
	}
	return labels, nil
}

// SaveLabels writes labels to path, choosing the codec from its extension.
func SaveLabels(path string, labels *raster.Labels) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create label dump: %w", err)
	}
	writeErr := WriteLabels(f, labels, CodecForPath(path))
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close label dump: %w", closeErr)
	}
	return nil
}

// LoadLabels reads a dump from path, choosing the codec from its extension.
func LoadLabels(path string) (*raster.Labels, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified input path
	if err != nil {
		return nil, fmt.Errorf("failed to open label dump: %w", err)
	}
	defer f.Close()
	return ReadLabels(f, CodecForPath(path), DefaultMaxBytes)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
