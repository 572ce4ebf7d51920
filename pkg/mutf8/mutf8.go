// Package mutf8 implements the modified UTF-8 encoding used for string
// constants in class files. It differs from standard UTF-8 in two ways: the
// null character is encoded as the two-byte sequence 0xC0 0x80 (a literal
// 0x00 byte is illegal), and supplementary characters are encoded as a pair
// of dependent three-byte surrogate sequences instead of one four-byte
// sequence.
package mutf8

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// IllegalByteError reports a byte that can never appear in modified UTF-8
// (0x00 or 0xF0 through 0xFF).
type IllegalByteError struct {
	Byte byte
}

func (e *IllegalByteError) Error() string {
	return fmt.Sprintf("illegal modified UTF-8 byte 0x%02X", e.Byte)
}

// TruncatedError reports a multi-byte sequence cut short by the end of input.
type TruncatedError struct {
	Expected int // length the sequence declared
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated modified UTF-8 sequence: expected %d bytes", e.Expected)
}

// BadContinuationError reports a continuation position holding a byte outside
// 0x80-0xBF, or a stray continuation byte at the start of a sequence.
type BadContinuationError struct {
	Byte byte
}

func (e *BadContinuationError) Error() string {
	return fmt.Sprintf("bad modified UTF-8 continuation byte 0x%02X", e.Byte)
}

// UnpairedSurrogateError reports a surrogate half without its partner.
type UnpairedSurrogateError struct{}

func (e *UnpairedSurrogateError) Error() string {
	return "unpaired surrogate half in modified UTF-8 sequence"
}

func isContinuation(b byte) bool {
	return b >= 0x80 && b <= 0xbf
}

// Decode converts modified UTF-8 bytes to a Go string. Surrogate pairs are
// combined into their supplementary code point; an unpaired surrogate half is
// an error.
func Decode(b []byte) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(b); {
		switch {
		case b[i] >= 0x01 && b[i] <= 0x7f:
			sb.WriteByte(b[i])
			i++

		case b[i] >= 0xc0 && b[i] <= 0xdf:
			if len(b) < i+2 {
				return "", &TruncatedError{Expected: 2}
			}
			if !isContinuation(b[i+1]) {
				return "", &BadContinuationError{Byte: b[i+1]}
			}
			if b[i] == 0xc0 && b[i+1] == 0x80 {
				// the two-byte escape for the null character
				sb.WriteRune(0)
			} else {
				sb.WriteRune(rune(b[i]&0x1f)<<6 | rune(b[i+1]&0x3f))
			}
			i += 2

		case b[i] >= 0xe0 && b[i] <= 0xef:
			if len(b) < i+3 {
				return "", &TruncatedError{Expected: 3}
			}
			if !isContinuation(b[i+1]) {
				return "", &BadContinuationError{Byte: b[i+1]}
			}
			if !isContinuation(b[i+2]) {
				return "", &BadContinuationError{Byte: b[i+2]}
			}
			switch {
			case b[i] == 0xed && b[i+1] >= 0xa0 && b[i+1] <= 0xaf:
				// high surrogate half; the matching low half must follow
				if len(b) < i+6 || b[i+3] != 0xed || b[i+4] < 0xb0 || b[i+4] > 0xbf {
					return "", &UnpairedSurrogateError{}
				}
				if !isContinuation(b[i+5]) {
					return "", &BadContinuationError{Byte: b[i+5]}
				}
				cp := 0x10000 +
					(rune(b[i+1]&0x0f)<<16 |
						rune(b[i+2]&0x3f)<<10 |
						rune(b[i+4]&0x0f)<<6 |
						rune(b[i+5]&0x3f))
				sb.WriteRune(cp)
				i += 6
			case b[i] == 0xed && b[i+1] >= 0xb0 && b[i+1] <= 0xbf:
				return "", &UnpairedSurrogateError{}
			default:
				sb.WriteRune(rune(b[i]&0x0f)<<12 | rune(b[i+1]&0x3f)<<6 | rune(b[i+2]&0x3f))
				i += 3
			}

		case isContinuation(b[i]):
			return "", &BadContinuationError{Byte: b[i]}

		default:
			return "", &IllegalByteError{Byte: b[i]}
		}
	}
	return sb.String(), nil
}

// DecodeUTF16 converts modified UTF-8 bytes to UTF-16 code units, the form
// used to populate char arrays backing string literals. Surrogate halves are
// passed through as-is without pairing validation.
func DecodeUTF16(b []byte) ([]uint16, error) {
	var units []uint16
	for i := 0; i < len(b); {
		switch {
		case b[i] >= 0x01 && b[i] <= 0x7f:
			units = append(units, uint16(b[i]))
			i++

		case b[i] >= 0xc0 && b[i] <= 0xdf:
			if len(b) < i+2 {
				return nil, &TruncatedError{Expected: 2}
			}
			if !isContinuation(b[i+1]) {
				return nil, &BadContinuationError{Byte: b[i+1]}
			}
			if b[i] == 0xc0 && b[i+1] == 0x80 {
				units = append(units, 0)
			} else {
				units = append(units, uint16(b[i]&0x1f)<<6|uint16(b[i+1]&0x3f))
			}
			i += 2

		case b[i] >= 0xe0 && b[i] <= 0xef:
			if len(b) < i+3 {
				return nil, &TruncatedError{Expected: 3}
			}
			if !isContinuation(b[i+1]) {
				return nil, &BadContinuationError{Byte: b[i+1]}
			}
			if !isContinuation(b[i+2]) {
				return nil, &BadContinuationError{Byte: b[i+2]}
			}
			units = append(units,
				uint16(b[i]&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3

		case isContinuation(b[i]):
			return nil, &BadContinuationError{Byte: b[i]}

		default:
			return nil, &IllegalByteError{Byte: b[i]}
		}
	}
	return units, nil
}

// Encode converts a Go string to modified UTF-8 bytes. It is the exact
// inverse of Decode over well-formed input.
func Encode(s string) []byte {
	var out []byte
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xc0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xc0|byte(r>>6), 0x80|byte(r&0x3f))
		case r < 0x10000:
			out = append(out, 0xe0|byte(r>>12), 0x80|byte(r>>6&0x3f), 0x80|byte(r&0x3f))
		default:
			hi, lo := utf16.EncodeRune(r)
			out = append(out,
				0xe0|byte(hi>>12), 0x80|byte(hi>>6&0x3f), 0x80|byte(hi&0x3f),
				0xe0|byte(lo>>12), 0x80|byte(lo>>6&0x3f), 0x80|byte(lo&0x3f))
		}
	}
	return out
}
