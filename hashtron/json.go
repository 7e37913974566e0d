package hashtron

import "encoding/json"
import "io"

// jsonHashtron is the serialized form of a hashtron
type jsonHashtron struct {
	Bits    byte        `json:"bits"`
	Program [][2]uint32 `json:"program"`
}

// MarshalJSON serializes the hashtron
func (h Hashtron) MarshalJSON() ([]byte, error) {
	var program = h.program
	if program == nil {
		program = [][2]uint32{}
	}
	return json.Marshal(jsonHashtron{Bits: h.bits, Program: program})
}

// UnmarshalJSON deserializes the hashtron
func (h *Hashtron) UnmarshalJSON(data []byte) error {
	var j jsonHashtron
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Bits > 16 {
		return ErrBits
	}
	if j.Bits == 0 {
		j.Bits = 1
	}
	h.bits = j.Bits
	h.program = j.Program
	return nil
}

// WriteJson writes the hashtron as json to w
func (h Hashtron) WriteJson(w io.Writer) error {
	return json.NewEncoder(w).Encode(h)
}

// ReadJson reads one json hashtron from r
func (h *Hashtron) ReadJson(r io.Reader) error {
	return json.NewDecoder(r).Decode(h)
}
