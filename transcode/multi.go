package transcode

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RyanBlaney/sonido-mmir/logging"
)

// MultiDecoder picks a decoder by file extension
type MultiDecoder struct {
	byExt  map[string]Decoder
	logger logging.Logger
}

// NewMultiDecoder wires WAV and MP3 natively and sends every other known
// container through ffmpeg
func NewMultiDecoder(config *DecoderConfig, logger logging.Logger) *MultiDecoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	logger = logging.OrGlobal(logger, "multi_decoder")

	ffmpeg := NewFFmpegDecoder(config, logger)
	m := &MultiDecoder{
		byExt:  make(map[string]Decoder),
		logger: logger,
	}
	m.Register(NewWAVDecoder(config, logger), ".wav", ".wave")
	m.Register(NewMP3Decoder(config, logger), ".mp3")
	m.Register(ffmpeg, ".flac", ".ogg", ".opus", ".m4a", ".aac", ".aif", ".aiff", ".wma")
	return m
}

// Register routes the given extensions to decoder
func (m *MultiDecoder) Register(decoder Decoder, extensions ...string) {
	for _, ext := range extensions {
		m.byExt[strings.ToLower(ext)] = decoder
	}
}

// Extensions lists the recognized extensions, sorted
func (m *MultiDecoder) Extensions() []string {
	exts := make([]string, 0, len(m.byExt))
	for ext := range m.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a recognized extension
func (m *MultiDecoder) Supports(path string) bool {
	_, ok := m.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (m *MultiDecoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decoder, ok := m.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return decoder.DecodeFile(ctx, path)
}
