package genodata

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

// DataType is the container format of an input stream.
type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
	DataTypeZStandard
)

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:      {0x1f, 0x8b, 0x08},
	DataTypeZip:       {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:        {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:         {0x1f, 0x9d},
	DataTypeBZip2:     {0x42, 0x5a, 0x68},
	DataTypeZStandard: {0x28, 0xb5, 0x2f, 0xfd},
}

// DetectDataType matches the leading bytes of a stream against known
// compression signatures.
func DetectDataType(head []byte) DataType {
	for dt, sig := range byteCodeSigs {
		if bytes.HasPrefix(head, sig) {
			return dt
		}
	}

	return DataTypeNoCompression
}

// OpenInput opens a local path or a gs://bucket/object URL and transparently
// decompresses gzip, zip, xz, bzip2, zlib and zstd streams.
func OpenInput(path string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if strings.HasPrefix(path, "gs://") {
		gs, err := openGoogleStorage(context.Background(), path)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		raw = gs
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw = f
	}

	rc, err := maybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rc, nil
}

func maybeDecompress(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(raw)
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	var r io.Reader
	switch DetectDataType(head) {
	case DataTypeGzip:
		if r, err = gzip.NewReader(br); err != nil {
			return nil, err
		}
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		r = zr
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		if r, err = xz.NewReader(br, 0); err != nil {
			return nil, err
		}
	case DataTypeZ:
		if r, err = zlib.NewReader(br); err != nil {
			return nil, err
		}
	case DataTypeZStandard:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &layeredReadCloser{Reader: dec, closers: []func() error{func() error { dec.Close(); return nil }, raw.Close}}, nil
	default:
		// No data type detected. We assume this is uncompressed.
		r = br
	}

	return &layeredReadCloser{Reader: r, closers: []func() error{raw.Close}}, nil
}

// layeredReadCloser reads from the outermost decoder and closes every layer
// underneath it.
type layeredReadCloser struct {
	io.Reader
	closers []func() error
}

func (l *layeredReadCloser) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openGoogleStorage(ctx context.Context, path string) (io.ReadCloser, error) {
	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := client.Bucket(pathParts[0]).Object(pathParts[1]).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &layeredReadCloser{Reader: r, closers: []func() error{r.Close, client.Close}}, nil
}

// withInput opens path and hands the stream to fn.
func withInput(path string, fn func(io.Reader) error) error {
	rc, err := OpenInput(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := fn(rc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
