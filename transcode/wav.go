package transcode

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-mmir/logging"
)

// WAVDecoder reads PCM WAV files natively
type WAVDecoder struct {
	config *DecoderConfig
	logger logging.Logger
}

func NewWAVDecoder(config *DecoderConfig, logger logging.Logger) *WAVDecoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &WAVDecoder{config: config, logger: logging.OrGlobal(logger, "wav_decoder")}
}

func (d *WAVDecoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file %s", ErrUnsupportedFormat, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}

	samples := intBufferToFloat(buf)
	channels := buf.Format.NumChannels
	d.logger.Debug("WAV decoded", logging.Fields{
		"function":    "DecodeFile",
		"file":        path,
		"sample_rate": buf.Format.SampleRate,
		"channels":    channels,
		"bit_depth":   buf.SourceBitDepth,
	})

	return conform(samples, buf.Format.SampleRate, channels, d.config, &FileMetadata{
		Path:           path,
		Format:         "wav",
		Codec:          "pcm",
		SourceRate:     buf.Format.SampleRate,
		SourceChannels: channels,
		BitDepth:       buf.SourceBitDepth,
	})
}

// intBufferToFloat scales integer PCM to [-1, 1]. 8-bit WAV is unsigned.
func intBufferToFloat(buf *audio.IntBuffer) []float64 {
	out := make([]float64, len(buf.Data))
	if buf.SourceBitDepth == 8 {
		for i, v := range buf.Data {
			out[i] = float64(v-128) / 128.0
		}
		return out
	}

	scale := float64(int64(1) << (buf.SourceBitDepth - 1))
	for i, v := range buf.Data {
		out[i] = float64(v) / scale
	}
	return out
}
