package genodata

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Compression selects how a written report is compressed.
type Compression uint32

const (
	CompressionDisabled Compression = iota
	CompressionGzip
	CompressionZStandard
)

func (c Compression) String() string {
	switch c {
	case CompressionDisabled:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZStandard:
		return "zstd"

	default:
		return "Illegal selection"
	}
}

// Extension is the conventional file suffix for the compression.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZStandard:
		return ".zst"
	}
	return ""
}

// ParseCompression accepts the names produced by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionDisabled, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZStandard, nil
	}
	return CompressionDisabled, fmt.Errorf("%w: compression %q", ErrFormat, s)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewCompressedWriter wraps w so that everything written to the result is
// compressed. Closing the result flushes the compressor but leaves w open.
func NewCompressedWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionDisabled:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return pgzip.NewWriter(w), nil
	case CompressionZStandard:
		return zstd.NewWriter(w)
	}
	return nil, fmt.Errorf("%w: compression %s", ErrFormat, c)
}
