// Package summary logs training scalars into per run directories.
package summary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("summary")

// ScalarsFile is the name of the scalar log inside a run directory.
const ScalarsFile = "scalars.tsv"

// RunTimeFormat formats the timestamp prefix of a run directory.
const RunTimeFormat = "2006-01-02_15:04:05"

// RunName returns a unique run directory name starting with the time t.
func RunName(t time.Time) string {
	return t.Format(RunTimeFormat) + "-" + uuid.NewString()[:8]
}

// Writer appends step, tag, value and wall time lines to scalars.tsv.
type Writer struct {
	mut  sync.Mutex
	dir  string
	file *os.File
	buf  *bufio.Writer
	now  func() time.Time
}

// NewWriter creates dir and opens its scalar log for appending.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "summary")
	}
	f, err := os.OpenFile(filepath.Join(dir, ScalarsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "summary")
	}
	log.Infof("writing summaries to %s", dir)
	return &Writer{dir: dir, file: f, buf: bufio.NewWriter(f), now: time.Now}, nil
}

// NewRun creates a fresh run directory under root.
func NewRun(root string) (*Writer, error) {
	return NewWriter(filepath.Join(root, RunName(time.Now())))
}

// Dir is the run directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Scalar logs one value.
func (w *Writer) Scalar(step int, tag string, value float64) error {
	if strings.ContainsAny(tag, "\t\n") {
		return errors.Errorf("summary: tag %q contains a separator", tag)
	}
	w.mut.Lock()
	defer w.mut.Unlock()
	var wall = float64(w.now().UnixNano()) / 1e9
	_, err := fmt.Fprintf(w.buf, "%d\t%s\t%s\t%.3f\n", step, tag, strconv.FormatFloat(value, 'g', -1, 64), wall)
	return errors.Wrap(err, "summary")
}

// Scalars logs several values at the same step in tag order.
func (w *Writer) Scalars(step int, values map[string]float64) error {
	var tags = make([]string, 0, len(values))
	for t := range values {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	for _, t := range tags {
		if err := w.Scalar(step, t, values[t]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered lines to disk.
func (w *Writer) Flush() error {
	w.mut.Lock()
	defer w.mut.Unlock()
	return errors.Wrap(w.buf.Flush(), "summary")
}

// Close flushes and closes the log.
func (w *Writer) Close() error {
	err := w.Flush()
	if cerr := w.file.Close(); err == nil {
		err = errors.Wrap(cerr, "summary")
	}
	return err
}

// Point is one logged scalar.
type Point struct {
	Step     int
	Tag      string
	Value    float64
	WallTime float64
}

// ReadScalars parses the scalar log of a run directory.
func ReadScalars(dir string) ([]Point, error) {
	var path = filepath.Join(dir, ScalarsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "summary")
	}
	defer f.Close()
	var out []Point
	var sc = bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != 4 {
			return nil, errors.Errorf("summary: %s:%d: expected 4 fields", path, line)
		}
		var p = Point{Tag: fields[1]}
		if p.Step, err = strconv.Atoi(fields[0]); err == nil {
			if p.Value, err = strconv.ParseFloat(fields[2], 64); err == nil {
				p.WallTime, err = strconv.ParseFloat(fields[3], 64)
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "summary: %s:%d", path, line)
		}
		out = append(out, p)
	}
	return out, errors.Wrap(sc.Err(), path)
}
