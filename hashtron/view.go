package hashtron

import (
	"bytes"
	"errors"
	"strconv"
)

// ErrName is returned by BytesBuffer for names that are not Go identifier suffixes.
var ErrName = errors.New("hashtron: invalid name")

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// BytesBuffer renders the hashtron as Go declarations of program<name>Bits
// and program<name>, one command per line.
func (h Hashtron) BytesBuffer(name string) (*bytes.Buffer, error) {
	if !validName(name) {
		return nil, ErrName
	}
	var b = new(bytes.Buffer)
	b.WriteString("var program" + name + "Bits byte = " + strconv.Itoa(int(h.bits)) + "\n")
	b.WriteString("var program" + name + " = [][2]uint32{\n")
	for _, v := range h.program {
		b.WriteString("\t{" + strconv.FormatUint(uint64(v[0]), 10) + ", " + strconv.FormatUint(uint64(v[1]), 10) + "},\n")
	}
	b.WriteString("}\n")
	return b, nil
}
