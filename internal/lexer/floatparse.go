package lexer

import "strconv"

func parseFloat(b []byte) (float64, error) {
	return strconv.ParseFloat(string(b), 64)
}
