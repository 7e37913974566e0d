// Package metrics computes classification metrics and renders confusion matrices.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Confusion counts predictions: Counts[true][predicted].
type Confusion struct {
	Labels []string
	Counts [][]int
}

// NewConfusion returns an empty matrix over labels.
func NewConfusion(labels []string) *Confusion {
	var c = &Confusion{Labels: labels, Counts: make([][]int, len(labels))}
	for i := range c.Counts {
		c.Counts[i] = make([]int, len(labels))
	}
	return c
}

// Add records one prediction.
func (c *Confusion) Add(truth, predicted int) error {
	if truth < 0 || truth >= len(c.Labels) || predicted < 0 || predicted >= len(c.Labels) {
		return errors.Errorf("metrics: class pair (%d, %d) outside %d classes", truth, predicted, len(c.Labels))
	}
	c.Counts[truth][predicted]++
	return nil
}

// ConfusionMatrix counts the pairs of truth and predicted.
func ConfusionMatrix(labels []string, truth, predicted []int) (*Confusion, error) {
	if len(truth) != len(predicted) {
		return nil, errors.Errorf("metrics: %d true labels, %d predictions", len(truth), len(predicted))
	}
	var c = NewConfusion(labels)
	for i := range truth {
		if err := c.Add(truth[i], predicted[i]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Total is the number of recorded predictions.
func (c *Confusion) Total() (n int) {
	for _, row := range c.Counts {
		for _, v := range row {
			n += v
		}
	}
	return
}

// Accuracy is the fraction of correct predictions, 0 when empty.
func (c *Confusion) Accuracy() float64 {
	var total = c.Total()
	if total == 0 {
		return 0
	}
	var ok int
	for i := range c.Counts {
		ok += c.Counts[i][i]
	}
	return float64(ok) / float64(total)
}

// Recall of class i, 0 when the class never occurs.
func (c *Confusion) Recall(i int) float64 {
	var sum int
	for _, v := range c.Counts[i] {
		sum += v
	}
	if sum == 0 {
		return 0
	}
	return float64(c.Counts[i][i]) / float64(sum)
}

// Precision of class i, 0 when the class is never predicted.
func (c *Confusion) Precision(i int) float64 {
	var sum int
	for _, row := range c.Counts {
		sum += row[i]
	}
	if sum == 0 {
		return 0
	}
	return float64(c.Counts[i][i]) / float64(sum)
}

// WriteTable writes the counts with per class recall and precision as an aligned text table.
func (c *Confusion) WriteTable(w io.Writer) error {
	var tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "true\\pred\t%s\trecall\t\n", strings.Join(c.Labels, "\t"))
	for i, row := range c.Counts {
		fmt.Fprintf(tw, "%s\t", c.Labels[i])
		for _, v := range row {
			fmt.Fprintf(tw, "%d\t", v)
		}
		fmt.Fprintf(tw, "%.3f\t\n", c.Recall(i))
	}
	fmt.Fprint(tw, "precision\t")
	for i := range c.Labels {
		fmt.Fprintf(tw, "%.3f\t", c.Precision(i))
	}
	fmt.Fprintf(tw, "%.3f\t\n", c.Accuracy())
	return errors.Wrap(tw.Flush(), "metrics")
}

// String renders the table.
func (c *Confusion) String() string {
	var b strings.Builder
	c.WriteTable(&b)
	return b.String()
}
