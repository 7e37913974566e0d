// Package audio loads, resamples, chunks and augments mono waveforms.
package audio

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("audio")

var (
	// ErrUnsupportedFormat is returned for files which are neither WAV nor FLAC.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
	// ErrEmpty is returned when a file decodes to zero samples.
	ErrEmpty = errors.New("audio: empty stream")
	// ErrTooShort is returned when a signal yields no chunk.
	ErrTooShort = errors.New("audio: signal too short")
)

// Signal is a mono waveform with samples in [-1, 1].
type Signal struct {
	Samples []float64
	Rate    int
}

// Duration reports the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.Rate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}

// Load decodes a WAV or FLAC file, mixing all channels down to mono.
func Load(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, errors.Wrap(err, "audio")
	}
	defer f.Close()

	var sig Signal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		sig, err = decodeWav(f)
	case ".flac":
		sig, err = decodeFlac(f)
	default:
		return Signal{}, errors.Wrap(ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Signal{}, errors.Wrap(err, path)
	}
	if len(sig.Samples) == 0 {
		return Signal{}, errors.Wrap(ErrEmpty, path)
	}
	log.Debugf("loaded %s: %d samples at %d Hz", path, len(sig.Samples), sig.Rate)
	return sig, nil
}

func decodeWav(f *os.File) (Signal, error) {
	stream, format, err := wav.Decode(f)
	if err != nil {
		return Signal{}, errors.Wrap(err, "wav")
	}
	defer stream.Close()
	samples, err := drain(stream)
	if err != nil {
		return Signal{}, errors.Wrap(err, "wav")
	}
	if scale := pcmScale(format.Precision); scale != 1 {
		for i := range samples {
			samples[i] *= scale
		}
	}
	return Signal{Samples: samples, Rate: int(format.SampleRate)}, nil
}

// pcmScale undoes the beep wav decoder dividing signed PCM of precision
// bytes by 2^bits-1 instead of 2^(bits-1), so that WAV and FLAC samples
// share the [-1, 1] full scale.
func pcmScale(precision int) float64 {
	if precision < 2 || precision > 3 {
		return 1
	}
	bits := uint(8 * precision)
	return float64(uint64(1)<<bits-1) / float64(uint64(1)<<(bits-1))
}

// drain reads a streamer to the end, averaging both channels.
func drain(s beep.Streamer) ([]float64, error) {
	var out []float64
	var buf = make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, v := range buf[:n] {
			out = append(out, (v[0]+v[1])/2)
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

// streamer replays mono samples on both channels.
func streamer(samples []float64) beep.Streamer {
	var pos int
	return beep.StreamerFunc(func(buf [][2]float64) (n int, ok bool) {
		if pos >= len(samples) {
			return 0, false
		}
		for n < len(buf) && pos < len(samples) {
			buf[n][0], buf[n][1] = samples[pos], samples[pos]
			n++
			pos++
		}
		return n, true
	})
}

// Resample converts the signal to rate with the beep resampler.
func Resample(sig Signal, rate int) (Signal, error) {
	if rate <= 0 || sig.Rate <= 0 {
		return Signal{}, errors.Errorf("audio: cannot resample %d Hz to %d Hz", sig.Rate, rate)
	}
	if sig.Rate == rate {
		return sig, nil
	}
	const quality = 4
	r := beep.Resample(quality, beep.SampleRate(sig.Rate), beep.SampleRate(rate), streamer(sig.Samples))
	samples, err := drain(r)
	if err != nil {
		return Signal{}, errors.Wrap(err, "audio: resample")
	}
	return Signal{Samples: samples, Rate: rate}, nil
}

// SpeedPerturb plays the signal ratio times faster keeping its sample rate.
func SpeedPerturb(sig Signal, ratio float64) (Signal, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Signal{}, errors.Errorf("audio: invalid speed ratio %v", ratio)
	}
	var fake = sig
	fake.Rate = int(math.Round(float64(sig.Rate) * ratio))
	return Resample(fake, sig.Rate)
}

// Chunk cuts samples into non-overlapping chunks of chunkSeconds. The final
// partial chunk is zero padded when it misses at most maxPadSeconds, and
// dropped otherwise. A signal shorter than one padded chunk yields nothing.
func Chunk(sig Signal, chunkSeconds, maxPadSeconds float64) [][]float64 {
	var size = int(chunkSeconds * float64(sig.Rate))
	var maxPad = int(maxPadSeconds * float64(sig.Rate))
	if size <= 0 {
		return nil
	}
	var out [][]float64
	for begin := 0; begin < len(sig.Samples); begin += size {
		end := begin + size
		if end <= len(sig.Samples) {
			out = append(out, sig.Samples[begin:end])
			continue
		}
		if end-len(sig.Samples) > maxPad {
			break
		}
		padded := make([]float64, size)
		copy(padded, sig.Samples[begin:])
		out = append(out, padded)
	}
	return out
}

// power is the mean squared amplitude.
func power(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}

// MixSNR adds noise to clean so that the clean to noise power ratio is snrDB.
// The noise is read from offset and wrapped around to cover the clean signal.
func MixSNR(clean, noise []float64, snrDB float64, offset int) ([]float64, error) {
	if len(noise) == 0 {
		return nil, errors.Wrap(ErrEmpty, "audio: noise")
	}
	var tiled = make([]float64, len(clean))
	offset %= len(noise)
	if offset < 0 {
		offset += len(noise)
	}
	for i := range tiled {
		tiled[i] = noise[(offset+i)%len(noise)]
	}
	var pc, pn = power(clean), power(tiled)
	var out = make([]float64, len(clean))
	var scale float64
	if pn > 0 {
		scale = math.Sqrt(pc / (pn * math.Pow(10, snrDB/10)))
	}
	for i := range out {
		out[i] = clean[i] + scale*tiled[i]
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, errors.Errorf("audio: non-finite sample at %d after mixing", i)
		}
	}
	return out, nil
}

// Save writes the signal as 16 bit PCM mono WAV, clipping to [-1, 1].
func Save(path string, sig Signal) error {
	if sig.Rate <= 0 {
		return errors.Errorf("audio: invalid sample rate %d", sig.Rate)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "audio")
	}
	var clipped = make([]float64, len(sig.Samples))
	for i, v := range sig.Samples {
		clipped[i] = math.Max(-1, math.Min(1, v))
	}
	format := beep.Format{SampleRate: beep.SampleRate(sig.Rate), NumChannels: 1, Precision: 2}
	err = wav.Encode(f, streamer(clipped), format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, path)
}
