package feedforward

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

import "github.com/neurlang/lidbox/hashtron"

// weights is the serialized form of network weights.
type weights struct {
	Premodulo []uint32             `json:"premodulo"`
	Hashtrons []*hashtron.Hashtron `json:"hashtrons"`
}

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (f FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "feedforward")
	}
	err = f.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes model weights to a writer
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	var ws weights
	for _, s := range f.stages {
		ws.Premodulo = append(ws.Premodulo, s.premodulo)
	}
	for i := 0; i < f.Len(); i++ {
		ws.Hashtrons = append(ws.Hashtrons, f.GetHashtron(i))
	}
	if err := json.NewEncoder(lw).Encode(ws); err != nil {
		return errors.Wrap(err, "feedforward: encode weights")
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (f *FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "feedforward")
	}
	defer file.Close()
	return errors.Wrap(f.ReadCompressedWeights(file), name)
}

// ReadCompressedWeights reads model weights from a reader. The network must
// already have the layout the weights were written from.
func (f *FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var ws weights
	if err := json.NewDecoder(lr).Decode(&ws); err != nil {
		return errors.Wrap(err, "feedforward: decode weights")
	}
	if len(ws.Hashtrons) != f.Len() || len(ws.Premodulo) != len(f.stages) {
		return errors.Errorf("feedforward: weights hold %d hashtrons in %d stages, network has %d in %d",
			len(ws.Hashtrons), len(ws.Premodulo), f.Len(), len(f.stages))
	}
	for i, h := range ws.Hashtrons {
		if h == nil {
			return errors.Errorf("feedforward: hashtron %d is null", i)
		}
		*f.GetHashtron(i) = *h
	}
	for l := range f.stages {
		f.stages[l].premodulo = ws.Premodulo[l]
	}
	return nil
}
