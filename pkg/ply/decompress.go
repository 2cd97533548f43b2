package ply

import (
	"io"

	"github.com/dyuri/goply/internal/compressio"
)

func decompressSource(src io.Reader, forcedCodec string) (io.Reader, error) {
	codec := forcedCodec
	if codec == "" {
		codec = compressio.Auto
	}
	return compressio.Wrap(src, codec)
}
