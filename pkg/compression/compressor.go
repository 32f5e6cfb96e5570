// Package compression wraps result output in a compressed stream.
//
// # Overview
//
// The compression package provides:
//   - Multiple compression algorithms (Gzip, Snappy, LZ4, Zstd, S2)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Streaming writers for file output and readers to read it back
//
// # Algorithm Selection
//
// Choose algorithms based on your requirements:
//   - Snappy/S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip: Wide compatibility, good compression
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//
//	w, err := comp.NewWriter(file)
//	// write the export, then
//	err = w.Close()
//
// Every algorithm uses its framed stream format, so Decompress reads what
// NewWriter wrote and vice versa.
package compression

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Algorithm represents a compression algorithm.
// Each algorithm has different trade-offs between speed and compression ratio.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

var extensions = map[Algorithm]string{
	None:   "",
	Gzip:   ".gz",
	Snappy: ".sz",
	LZ4:    ".lz4",
	Zstd:   ".zst",
	S2:     ".s2",
}

// ParseAlgorithm maps a name such as "zstd" to its Algorithm. The empty
// string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if a == "" {
		return None, nil
	}
	if _, ok := extensions[a]; !ok {
		return "", errors.Newf(errors.ErrorTypeValidation, "unsupported compression algorithm: %s", name)
	}
	return a, nil
}

// Extension is the conventional file suffix for a, e.g. ".zst"
func (a Algorithm) Extension() string {
	return extensions[a]
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// Compressor provides compression and decompression functionality.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// NewWriter returns a writer compressing into dst. Close flushes the
	// stream but does not close dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)

	// NewReader returns a reader decompressing src.
	NewReader(src io.Reader) (io.ReadCloser, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns Zstd at the default level
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	level := config.Level
	if level == 0 {
		level = Default
	}

	base := baseCompressor{algorithm: config.Algorithm, level: level}
	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &noneCompressor{base}, nil
	case Gzip:
		return &gzipCompressor{base}, nil
	case Snappy:
		return &snappyCompressor{base}, nil
	case LZ4:
		return &lz4Compressor{base}, nil
	case Zstd:
		return &zstdCompressor{base}, nil
	case S2:
		return &s2Compressor{base}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// streamer is the per-algorithm part of a Compressor
type streamer interface {
	NewWriter(dst io.Writer) (io.WriteCloser, error)
	NewReader(src io.Reader) (io.ReadCloser, error)
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

func (bc *baseCompressor) Level() Level {
	return bc.level
}

func compress(s streamer, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := s.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(s streamer, data []byte) ([]byte, error) {
	r, err := s.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "corrupt compressed stream")
	}
	defer r.Close()

	out, err := io.ReadAll(r) //nolint:gosec // G110: input is our own export
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "corrupt compressed stream")
	}
	return out, nil
}

// No compression
type noneCompressor struct {
	baseCompressor
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (nc *noneCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

func (nc *noneCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

// Gzip compressor
type gzipCompressor struct {
	baseCompressor
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	return compress(gc, data)
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	return decompress(gc, data)
}

func (gc *gzipCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(dst, mapGzipLevel(gc.level))
}

func (gc *gzipCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

// Snappy compressor
type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return compress(sc, data)
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return decompress(sc, data)
}

func (sc *snappyCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(dst), nil
}

func (sc *snappyCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(src)), nil
}

// LZ4 compressor
type lz4Compressor struct {
	baseCompressor
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	return compress(lc, data)
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return decompress(lc, data)
}

func (lc *lz4Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(lc.level))); err != nil {
		return nil, err
	}
	return w, nil
}

func (lc *lz4Compressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(src)), nil
}

// Zstd compressor
type zstdCompressor struct {
	baseCompressor
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return compress(zc, data)
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	return decompress(zc, data)
}

func (zc *zstdCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(zc.level)))
}

func (zc *zstdCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// S2 compressor (Snappy-compatible but better compression)
type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	return compress(sc, data)
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	return decompress(sc, data)
}

func (sc *s2Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	opts := []s2.WriterOption{}
	switch sc.level {
	case Better:
		opts = append(opts, s2.WriterBetterCompression())
	case Best:
		opts = append(opts, s2.WriterBestCompression())
	}
	return s2.NewWriter(dst, opts...), nil
}

func (sc *s2Compressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(src)), nil
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
