package bytewindow

// Swap2, Swap4 and Swap8 reverse a 2/4/8-byte field in place, converting
// between little- and big-endian. Swap2 and Swap4 exchange byte pairs
// directly; Swap8 copies the field into a temporary and writes it back
// reversed.
func Swap2(b []byte) {
	_ = b[1]
	b[0], b[1] = b[1], b[0]
}

func Swap4(b []byte) {
	_ = b[3]
	b[0], b[3] = b[3], b[0]
	b[1], b[2] = b[2], b[1]
}

func Swap8(b []byte) {
	_ = b[7]
	var tmp [8]byte
	copy(tmp[:], b[:8])
	for i := 0; i < 8; i++ {
		b[i] = tmp[7-i]
	}
}

// SwapN reverses an n-byte field in place (n one of 1, 2, 4, 8). n == 1 is
// a no-op, kept so callers can dispatch on model.ScalarType.Size() without
// a special case for single-byte types.
func SwapN(b []byte, n int) {
	switch n {
	case 1:
	case 2:
		Swap2(b)
	case 4:
		Swap4(b)
	case 8:
		Swap8(b)
	}
}
