// Package compressio provides transparent decompression front-ends for
// PLY files stored compressed, sniffing magic bytes (or honoring an
// explicit codec override) and wrapping the source in a plain
// io.Reader so the rest of the pipeline never knows it was compressed.
package compressio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	lzo "github.com/anchore/go-lzo"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// maxLZOPayload bounds the single-shot LZO decompression below, since
// go-lzo exposes a whole-buffer API rather than a streaming one.
const maxLZOPayload = 256 * 1024 * 1024

// Codec names accepted by ply-perf's --codec flag.
const (
	Auto = "auto"
	None = "none"
	Gzip = "gzip"
	LZ4  = "lz4"
	XZ   = "xz"
	LZO  = "lzo"
)

var magicGzip = []byte{0x1f, 0x8b}
var magicLZ4 = []byte{0x04, 0x22, 0x4d, 0x18}
var magicXZ = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
var magicLZO = []byte{0x89, 'L', 'Z', 'O', 0x00, 0x0d, 0x0a, 0x1a, 0x0a}

// Wrap returns an io.Reader that transparently decompresses src
// according to codec. codec == Auto sniffs the first few bytes and
// falls back to passing src through unchanged when no known magic
// matches. The returned reader replaces src; callers must not read
// from src again.
func Wrap(src io.Reader, codec string) (io.Reader, error) {
	br := bufio.NewReaderSize(src, 16)

	if codec == "" {
		codec = Auto
	}
	if codec == Auto {
		detected, err := detect(br)
		if err != nil {
			return nil, fmt.Errorf("compressio: sniff: %w", err)
		}
		codec = detected
	}

	switch codec {
	case None:
		return br, nil
	case Gzip:
		r, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("compressio: gzip: %w", err)
		}
		return r, nil
	case LZ4:
		return lz4.NewReader(br), nil
	case XZ:
		r, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("compressio: xz: %w", err)
		}
		return r, nil
	case LZO:
		compressed, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("compressio: lzo: read source: %w", err)
		}
		decoded, err := lzo.Decompress1X(bytes.NewReader(compressed), len(compressed), maxLZOPayload)
		if err != nil {
			return nil, fmt.Errorf("compressio: lzo: %w", err)
		}
		return bytes.NewReader(decoded), nil
	default:
		return nil, fmt.Errorf("compressio: unknown codec %q", codec)
	}
}

func detect(br *bufio.Reader) (string, error) {
	head, err := br.Peek(len(magicLZO))
	if err != nil && err != io.EOF {
		return "", err
	}
	switch {
	case hasPrefix(head, magicGzip):
		return Gzip, nil
	case hasPrefix(head, magicLZ4):
		return LZ4, nil
	case hasPrefix(head, magicXZ):
		return XZ, nil
	case hasPrefix(head, magicLZO):
		return LZO, nil
	default:
		return None, nil
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if b[i] != p {
			return false
		}
	}
	return true
}
