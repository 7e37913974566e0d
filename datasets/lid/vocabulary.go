package lid

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/hash"
)

// Vocabulary maps labels to indices and one-hot rows. The lookup is a static
// perfect hash table: every label lands in its own slot of a prime sized
// table under one salt.
type Vocabulary struct {
	labels []string
	salt   uint32
	table  []int32
}

// NewVocabulary builds the vocabulary with index i for labels[i].
// Empty and duplicate labels are rejected.
func NewVocabulary(labels []string) (*Vocabulary, error) {
	var seen = make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			return nil, errors.New("lid: empty label")
		}
		if _, dup := seen[l]; dup {
			return nil, errors.Errorf("lid: duplicate label %q", l)
		}
		seen[l] = struct{}{}
	}

	var v = &Vocabulary{labels: append([]string(nil), labels...)}
	var size = hash.PrimeAtLeast(uint32(2*len(labels) + 1))
	for {
		for salt := uint32(0); salt < 1<<16; salt++ {
			if v.tryBuild(salt, size) {
				return v, nil
			}
		}
		size = hash.PrimeAtLeast(2 * size)
	}
}

func (v *Vocabulary) tryBuild(salt, size uint32) bool {
	var table = make([]int32, size)
	for i := range table {
		table[i] = -1
	}
	for i, l := range v.labels {
		slot := hash.StringMod(l, salt, size)
		if table[slot] != -1 {
			return false
		}
		table[slot] = int32(i)
	}
	v.salt, v.table = salt, table
	return true
}

// Len is the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Lookup returns the index of label, or Len() for unknown labels.
func (v *Vocabulary) Lookup(label string) int {
	if len(v.table) == 0 {
		return v.Len()
	}
	idx := v.table[hash.StringMod(label, v.salt, uint32(len(v.table)))]
	if idx < 0 || v.labels[idx] != label {
		return v.Len()
	}
	return int(idx)
}

// Label returns the label of index i.
func (v *Vocabulary) Label(i int) string {
	return v.labels[i]
}

// Labels returns a copy of all labels in index order.
func (v *Vocabulary) Labels() []string {
	return append([]string(nil), v.labels...)
}

// OneHot returns the one-hot row of index i, all zeros for i out of range.
func (v *Vocabulary) OneHot(i int) []float64 {
	var row = make([]float64, v.Len())
	if i >= 0 && i < len(row) {
		row[i] = 1
	}
	return row
}

// OneHotMatrix returns the identity matrix whose row i is OneHot(i).
func (v *Vocabulary) OneHotMatrix() *mat.Dense {
	var n = v.Len()
	var m = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// WriteFile writes one label per line.
func (v *Vocabulary) WriteFile(path string) error {
	return errors.Wrap(os.WriteFile(path, []byte(strings.Join(v.labels, "\n")+"\n"), 0o644), "lid")
}

// ReadVocabulary reads a vocabulary written by WriteFile.
func ReadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "lid")
	}
	defer f.Close()
	var labels []string
	var sc = bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			labels = append(labels, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return NewVocabulary(labels)
}
