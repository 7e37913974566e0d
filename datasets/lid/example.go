// Package lid assembles spoken language identification datasets: utterance
// manifests, the label vocabulary, feature shards with their metadata, and
// the fixed size views of utterances used by the classifiers.
package lid

import (
	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"
)

var log = logging.MustGetLogger("lid")

// Utterance is one manifest entry.
type Utterance struct {
	ID    string
	Path  string
	Label string
}

// Example is an utterance with extracted features, one row per frame, and
// its label index in the vocabulary.
type Example struct {
	ID       string
	Label    int
	Features *mat.Dense
}

// Shapes returns the shape of every component: the features matrix and the scalar label.
func (e Example) Shapes() [][]int {
	var shape = []int{0, 0}
	if e.Features != nil {
		shape[0], shape[1] = e.Features.Dims()
	}
	return [][]int{shape, {}}
}
