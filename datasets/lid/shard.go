package lid

import (
	"context"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/datasets/stream"
	"github.com/neurlang/lidbox/features"
)

// record is the on-disk form of an Example, features stored as float16 bits.
type record struct {
	ID     string   `msgpack:"id"`
	Label  int      `msgpack:"label"`
	Frames int      `msgpack:"frames"`
	Dim    int      `msgpack:"dim"`
	Data   []uint16 `msgpack:"data"`
}

// ShardWriter writes examples into a zstd compressed msgpack stream.
type ShardWriter struct {
	file  *os.File
	zw    *zstd.Encoder
	enc   *msgpack.Encoder
	count int
	bytes int64
}

// NewShardWriter creates the shard file at path.
func NewShardWriter(path string) (*ShardWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "lid")
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "lid: zstd")
	}
	return &ShardWriter{file: f, zw: zw, enc: msgpack.NewEncoder(zw)}, nil
}

// Write appends one example. Values outside the float16 range are rejected
// and nothing is written.
func (w *ShardWriter) Write(ex Example) error {
	if ex.Features == nil {
		return errors.Errorf("lid: example %s has no features", ex.ID)
	}
	rows, cols := ex.Features.Dims()
	var rec = record{ID: ex.ID, Label: ex.Label, Frames: rows, Dim: cols, Data: make([]uint16, 0, rows*cols)}
	for i := 0; i < rows; i++ {
		for _, v := range ex.Features.RawRowView(i) {
			h := float16.Fromfloat32(float32(v))
			if !h.IsFinite() {
				return errors.Wrapf(features.ErrNonFinite, "lid: example %s value %g overflows float16", ex.ID, v)
			}
			rec.Data = append(rec.Data, h.Bits())
		}
	}
	if err := w.enc.Encode(&rec); err != nil {
		return errors.Wrapf(err, "lid: encode %s", ex.ID)
	}
	w.count++
	w.bytes += int64(2 * len(rec.Data))
	return nil
}

// Count is the number of examples written.
func (w *ShardWriter) Count() int {
	return w.count
}

// FeatureBytes is the size of the stored features before compression.
func (w *ShardWriter) FeatureBytes() int64 {
	return w.bytes
}

// Close flushes the compressor and closes the file.
func (w *ShardWriter) Close() error {
	err := w.zw.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "lid")
}

// ReadShards lazily streams the examples of every shard in order.
func ReadShards(paths []string) stream.Stream[Example] {
	var (
		next int
		file *os.File
		zr   *zstd.Decoder
		dec  *msgpack.Decoder
	)
	closeCurrent := func() {
		if zr != nil {
			zr.Close()
			zr = nil
		}
		if file != nil {
			file.Close()
			file = nil
		}
	}
	return func(ctx context.Context) (Example, error) {
		for {
			if err := ctx.Err(); err != nil {
				closeCurrent()
				return Example{}, err
			}
			if dec == nil {
				if next >= len(paths) {
					return Example{}, io.EOF
				}
				f, err := os.Open(paths[next])
				if err != nil {
					return Example{}, errors.Wrap(err, "lid")
				}
				r, err := zstd.NewReader(f)
				if err != nil {
					f.Close()
					return Example{}, errors.Wrapf(err, "lid: %s", paths[next])
				}
				file, zr, dec = f, r, msgpack.NewDecoder(r)
				next++
			}
			var rec record
			err := dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				closeCurrent()
				dec = nil
				continue
			}
			if err != nil {
				closeCurrent()
				dec = nil
				return Example{}, errors.Wrapf(err, "lid: %s", paths[next-1])
			}
			ex, err := rec.example()
			return ex, errors.Wrapf(err, "lid: %s", paths[next-1])
		}
	}
}

func (rec *record) example() (Example, error) {
	if rec.Frames <= 0 || rec.Dim <= 0 || len(rec.Data) != rec.Frames*rec.Dim {
		return Example{}, errors.Errorf("example %s: %d values for %dx%d features", rec.ID, len(rec.Data), rec.Frames, rec.Dim)
	}
	var data = make([]float64, len(rec.Data))
	for i, b := range rec.Data {
		data[i] = float64(float16.Frombits(b).Float32())
	}
	return Example{ID: rec.ID, Label: rec.Label, Features: mat.NewDense(rec.Frames, rec.Dim, data)}, nil
}
