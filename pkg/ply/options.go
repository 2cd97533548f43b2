package ply

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/dyuri/goply/internal/bytewindow"
)

// config collects the functional options applied to a Reader at
// construction, in the vein of the teacher's binary.NewReader(r, size)
// but generalized to options since a PLY reader has more knobs.
type config struct {
	bufferSize  int
	log         *logrus.Entry
	codePage    encoding.Encoding
	decompress  bool
	forcedCodec string
}

// Option configures a Reader at construction time.
type Option func(*config)

// WithBufferSize overrides the default ~128 KiB scratch window capacity.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// WithLogger attaches a logrus entry; log sites are documented in
// SPEC_FULL.md §10.1. Passing nil restores the default discard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *config) {
		if log == nil {
			c.log = defaultConfig().log
			return
		}
		c.log = log
	}
}

// WithCodePage decodes comment lines using a Windows code page for
// display purposes only (comment text is never parsed, only surfaced),
// the same style as the teacher's label decoder. cp must be one of the
// standard Windows code page numbers (e.g. 1252); unknown values leave
// comments decoded as raw bytes.
func WithCodePage(cp int) Option {
	return func(c *config) { c.codePage = codePageByNumber(cp) }
}

// WithDecompression opts into internal/compressio magic-byte sniffing
// before the PLY stream is parsed.
func WithDecompression(on bool) Option {
	return func(c *config) { c.decompress = on }
}

// WithForcedCodec bypasses sniffing and forces a specific compressio
// codec name (ply-perf's --codec flag).
func WithForcedCodec(codec string) Option {
	return func(c *config) { c.forcedCodec = codec }
}

func defaultConfig() *config {
	discard := logrus.New()
	discard.SetOutput(discardWriter{})
	return &config{
		bufferSize: bytewindow.DefaultCapacity,
		log:        logrus.NewEntry(discard),
		decompress: false,
	}
}

func codePageByNumber(cp int) encoding.Encoding {
	switch cp {
	case 1250:
		return charmap.Windows1250
	case 1251:
		return charmap.Windows1251
	case 1252:
		return charmap.Windows1252
	case 1253:
		return charmap.Windows1253
	case 1254:
		return charmap.Windows1254
	default:
		return nil
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
