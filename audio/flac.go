package audio

import (
	"io"

	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
)

func decodeFlac(r io.Reader) (Signal, error) {
	stream, err := flac.New(r)
	if err != nil {
		return Signal{}, errors.Wrap(err, "flac")
	}
	defer stream.Close()

	var (
		channels = int(stream.Info.NChannels)
		scale    = 1 / float64(int64(1)<<(stream.Info.BitsPerSample-1))
		out      []float64
	)
	if channels == 0 {
		return Signal{}, errors.New("flac: no channels")
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Signal{}, errors.Wrap(err, "flac")
		}
		for i := 0; i < int(frame.BlockSize); i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			out = append(out, sum*scale/float64(channels))
		}
	}
	return Signal{Samples: out, Rate: int(stream.Info.SampleRate)}, nil
}
