package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// Compression selects how the report file is encoded.
type Compression string

const (
	CompressNone Compression = ""
	CompressZstd Compression = "zstd"
	CompressXz   Compression = "xz"
	CompressLzip Compression = "lzip"
)

// ParseCompression accepts "", "none", "zstd", "xz" or "lzip".
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case CompressNone, "none":
		return CompressNone, nil
	case CompressZstd, CompressXz, CompressLzip:
		return c, nil
	default:
		return CompressNone, fmt.Errorf("unknown compression %q (supported: none, zstd, xz, lzip)", s)
	}
}

// Ext returns the file suffix appended after ".txt".
func (c Compression) Ext() string {
	switch c {
	case CompressZstd:
		return ".zst"
	case CompressXz:
		return ".xz"
	case CompressLzip:
		return ".lz"
	default:
		return ""
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// newEncoder wraps w. Closing the encoder flushes it but leaves w open.
func newEncoder(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressNone:
		return nopCloser{w}, nil
	case CompressZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	case CompressXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xw, nil
	case CompressLzip:
		return lzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", string(c))
	}
}

// NewReader returns a reader that decodes a report written with c.
func NewReader(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case CompressNone:
		return r, nil
	case CompressZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	case CompressXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, nil
	case CompressLzip:
		lr, err := lzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create lzip reader: %w", err)
		}
		return lr, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", string(c))
	}
}
