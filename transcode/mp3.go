package transcode

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/RyanBlaney/sonido-mmir/logging"
)

// MP3Decoder decodes MPEG-1/2 layer III without ffmpeg. go-mp3 always emits
// 16-bit little-endian stereo.
type MP3Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

func NewMP3Decoder(config *DecoderConfig, logger logging.Logger) *MP3Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &MP3Decoder{config: config, logger: logging.OrGlobal(logger, "mp3_decoder")}
}

func (d *MP3Decoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("invalid MP3 stream: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	samples := int16LEToFloat(raw)
	d.logger.Debug("MP3 decoded", logging.Fields{
		"function":    "DecodeFile",
		"file":        path,
		"sample_rate": decoder.SampleRate(),
		"samples":     len(samples),
	})

	return conform(samples, decoder.SampleRate(), 2, d.config, &FileMetadata{
		Path:           path,
		Format:         "mp3",
		Codec:          "mp3",
		SourceRate:     decoder.SampleRate(),
		SourceChannels: 2,
		BitDepth:       16,
	})
}

func int16LEToFloat(data []byte) []float64 {
	count := len(data) / 2
	out := make([]float64, count)
	for i := range count {
		out[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
	}
	return out
}
