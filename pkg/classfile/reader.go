package classfile

import "encoding/binary"

// reader is a byte cursor over class file data. All multi-byte reads are
// big-endian. The what argument names the structure being read so truncation
// errors can say what was expected.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) u1(what string) (uint8, error) {
	if r.remaining() < 1 {
		return 0, &TruncatedError{What: what, Need: 1, Have: r.remaining()}
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u2(what string) (uint16, error) {
	if r.remaining() < 2 {
		return 0, &TruncatedError{What: what, Need: 2, Have: r.remaining()}
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4(what string) (uint32, error) {
	if r.remaining() < 4 {
		return 0, &TruncatedError{What: what, Need: 4, Have: r.remaining()}
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int, what string) ([]byte, error) {
	if r.remaining() < n {
		return nil, &TruncatedError{What: what, Need: n, Have: r.remaining()}
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
