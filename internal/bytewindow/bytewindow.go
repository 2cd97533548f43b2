// Package bytewindow implements the buffered, windowed byte reader shared
// by the lexer and the element loader. It is the only place in the parser
// that talks to the underlying io.Reader.
package bytewindow

import (
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity is the scratch window size used when a Reader is built
// with New rather than NewSize — large enough to amortize syscalls, small enough
// to keep peak memory bounded regardless of file size.
const DefaultCapacity = 128 * 1024

// Reader is a fixed-capacity scratch window over an io.Reader, refilled on
// demand. It tracks, per spec, bufStart ≤ pos ≤ end ≤ bufEnd: here bufStart
// is always 0 (the window is compacted on every refill), pos is the read
// cursor, end is exposed (the "safe" data boundary in ASCII mode), and
// bufEnd is cap(buf).
type Reader struct {
	src    io.Reader
	seeker io.Seeker // non-nil when src also implements io.Seeker

	buf      []byte
	pos      int   // read cursor, index into buf
	validLen int   // bytes actually read into buf (truth)
	exposed  int   // bytes safe to hand to callers; exposed <= validLen
	fileOff  int64 // absolute offset of buf[0] in src

	atEOF     bool // src returned io.EOF; validLen is final, never grows
	asciiMode bool // enforce the safe-trailing-byte refill rule

	log *logrus.Entry
}

// New creates a Reader with DefaultCapacity. src may optionally implement
// io.Seeker, enabling the fast path in SeekForward.
func New(src io.Reader, log *logrus.Entry) *Reader {
	return NewSize(src, DefaultCapacity, log)
}

// NewSize creates a Reader with an explicit scratch window capacity.
func NewSize(src io.Reader, capacity int, log *logrus.Entry) *Reader {
	if capacity < 64 {
		capacity = 64
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	seeker, _ := src.(io.Seeker)
	return &Reader{
		src:    src,
		seeker: seeker,
		buf:    make([]byte, capacity),
		log:    log,
	}
}

// SetASCIIMode toggles the safe-trailing-byte refill rule described in
// spec §4.1. The header grammar and ASCII element payloads need it so no
// token straddles a window edge; fixed-size binary reads (which always
// Ensure the exact field size) do not.
func (r *Reader) SetASCIIMode(on bool) {
	r.asciiMode = on
}

// Pos returns the absolute offset in the source stream of the next unread
// byte.
func (r *Reader) Pos() int64 {
	return r.fileOff + int64(r.pos)
}

// Peek returns the current byte, or the end-of-window sentinel 0 if no
// more data is available (either truly at EOF, or refilling failed).
func (r *Reader) Peek() byte {
	if !r.Ensure(1) {
		return 0
	}
	return r.buf[r.pos]
}

// PeekAt returns the byte offset bytes ahead of the cursor without
// advancing, or (0, false) if that many bytes aren't available.
func (r *Reader) PeekAt(offset int) (byte, bool) {
	if !r.Ensure(offset + 1) {
		return 0, false
	}
	return r.buf[r.pos+offset], true
}

// Bytes returns a slice of the next n buffered bytes without advancing.
// The slice aliases the internal buffer and is only valid until the next
// call that might refill (Ensure/Advance/Peek with insufficient lookahead,
// or SeekForward).
func (r *Reader) Bytes(n int) ([]byte, bool) {
	if !r.Ensure(n) {
		return nil, false
	}
	return r.buf[r.pos : r.pos+n], true
}

// Available returns how many bytes are currently known to be readable at
// the cursor without triggering a refill.
func (r *Reader) Available() int {
	limit := r.exposed
	if r.atEOF {
		limit = r.validLen
	}
	if limit < r.pos {
		return 0
	}
	return limit - r.pos
}

// ReadInto fills dst completely from the window, reading in
// capacity-sized chunks and refilling as needed regardless of len(dst).
// Returns false (dst left partially written) if the source ends early.
func (r *Reader) ReadInto(dst []byte) bool {
	for len(dst) > 0 {
		n := len(dst)
		if n > len(r.buf) {
			n = len(r.buf)
		}
		if !r.Ensure(n) {
			n = r.Available()
			if n == 0 || n > len(dst) {
				return false
			}
			if !r.Ensure(n) {
				return false
			}
		}
		b, ok := r.Bytes(n)
		if !ok {
			return false
		}
		copy(dst[:n], b)
		r.AdvanceBytes(n)
		dst = dst[n:]
	}
	return true
}

// Ensure guarantees n bytes are available starting at the cursor,
// refilling from the source as needed. Returns false if n bytes will
// never be reachable (EOF reached with fewer bytes remaining, or n
// exceeds the window capacity).
func (r *Reader) Ensure(n int) bool {
	if n > len(r.buf) {
		return false
	}
	for {
		limit := r.exposed
		if r.atEOF {
			// No more data is coming; the true valid length is final.
			limit = r.validLen
		}
		if r.pos+n <= limit {
			return true
		}
		if r.atEOF {
			return false
		}
		if !r.refill() {
			// refill made no progress; re-check against whatever is final.
			if r.pos+n <= r.validLen {
				return true
			}
			return false
		}
	}
}

// AdvanceBytes moves the cursor forward by n bytes, refilling as needed.
// Fails (returns false, cursor unchanged) if the file ends mid-advance.
func (r *Reader) AdvanceBytes(n int) bool {
	if n == 0 {
		return true
	}
	if !r.Ensure(n) {
		return false
	}
	r.pos += n
	return true
}

// SeekForward skips to absoluteOffset, used only to skip past the body of
// an unloaded fixed-size element in binary mode. Prefers a real seek on
// the underlying source; falls back to discarding bytes sequentially when
// the source isn't seekable (e.g. a decompression front-end).
func (r *Reader) SeekForward(absoluteOffset int64) bool {
	cur := r.Pos()
	if absoluteOffset < cur {
		// Never needed by this parser (strictly forward-only), but guard
		// rather than silently misbehave.
		return false
	}
	delta := absoluteOffset - cur

	if r.seeker != nil {
		if _, err := r.seeker.Seek(absoluteOffset, io.SeekStart); err != nil {
			r.log.WithError(err).Warn("bytewindow: seek failed")
			return false
		}
		r.pos = 0
		r.validLen = 0
		r.exposed = 0
		r.atEOF = false
		r.fileOff = absoluteOffset
		return true
	}

	for delta > 0 {
		step := delta
		if step > int64(len(r.buf)) {
			step = int64(len(r.buf))
		}
		if !r.AdvanceBytes(int(step)) {
			return false
		}
		delta -= step
	}
	return true
}

// refill compacts the window (moving the true unconsumed tail to the
// front) and reads more bytes from the source. Returns false if no new
// bytes were obtained (source exhausted).
func (r *Reader) refill() bool {
	remaining := r.validLen - r.pos
	if remaining > 0 {
		copy(r.buf[0:remaining], r.buf[r.pos:r.validLen])
	}
	r.fileOff += int64(r.pos)
	r.pos = 0

	n, err := io.ReadFull(r.src, r.buf[remaining:])
	total := remaining + n
	r.validLen = total

	r.log.WithFields(logrus.Fields{
		"requested":   len(r.buf) - remaining,
		"available":   n,
		"file_offset": r.fileOff,
	}).Debug("bytewindow: refill")

	if err != nil {
		// ReadFull returns ErrUnexpectedEOF on a short final read, EOF on
		// none at all; both mean the source is exhausted.
		r.atEOF = true
	}

	if r.asciiMode && !r.atEOF {
		r.exposed = r.safeBoundary(total)
	} else {
		r.exposed = total
	}

	return n > 0
}

// safeBoundary returns the largest index <= validLen such that buf[idx-1]
// (if any) is a "safe" byte per spec §4.1: whitespace, a control byte in
// [1,32], or >=127. This guarantees no token can straddle the exposed
// window edge undetected.
func (r *Reader) safeBoundary(validLen int) int {
	for i := validLen; i > 0; i-- {
		if isSafeTrailing(r.buf[i-1]) {
			return i
		}
	}
	return 0
}

func isSafeTrailing(b byte) bool {
	return (b >= 1 && b <= 32) || b >= 127
}
