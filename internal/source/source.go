// Package source reads PGN text from files, URLs and request bodies, undoing
// zstd compression where present. Monthly database dumps are published as
// .pgn.zst files.
package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vytor/pgnvault/internal/logger"
)

// zstdMagic is the little-endian frame magic number 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether path names a zstd file by extension.
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

type decoderReadCloser struct {
	*zstd.Decoder
	underlying io.Closer
}

func (d *decoderReadCloser) Close() error {
	d.Decoder.Close()
	if d.underlying != nil {
		return d.underlying.Close()
	}
	return nil
}

// Decompress wraps r in a streaming zstd decoder. Closing the result releases
// the decoder but not r.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &decoderReadCloser{Decoder: dec}, nil
}

// Sniff returns a reader equivalent to r that is decompressed when the
// stream starts with a zstd frame.
func Sniff(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, zstdMagic) {
		return Decompress(br)
	}
	return io.NopCloser(br), nil
}

// Open opens path for reading, decompressing .zst files on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder for %s: %w", path, err)
	}
	return &decoderReadCloser{Decoder: dec, underlying: f}, nil
}

// ReadAll reads the whole of path as text. Paths that are http(s) URLs are
// downloaded with DefaultClient.
func ReadAll(ctx context.Context, path string) (string, error) {
	if IsRemote(path) {
		return DefaultClient.Fetch(ctx, path)
	}
	log := logger.FromContext(ctx).WithPrefix("source").WithField("path", path)

	rc, err := Open(path)
	if err != nil {
		log.Error("failed to open: %v", err)
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	n, err := io.Copy(&sb, contextReader{ctx: ctx, r: rc})
	if err != nil {
		log.Error("failed to read after %d bytes: %v", n, err)
		return "", err
	}
	log.Debug("read %d bytes (compressed=%t)", n, IsCompressed(path))
	return sb.String(), nil
}

// contextReader stops a long read once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
