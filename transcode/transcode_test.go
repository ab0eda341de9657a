package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/logging"
)

func writeStereoWAV(t *testing.T, path string, sampleRate int, left, right []int) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	data := make([]int, 0, 2*len(left))
	for i := range left {
		data = append(data, left[i], right[i])
	}

	enc := wav.NewEncoder(file, sampleRate, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestWAVDecoderDownmixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeStereoWAV(t, path, 22050,
		[]int{16384, -16384, 0, 32767},
		[]int{0, -16384, 16384, 32767})

	decoder := NewWAVDecoder(DefaultDecoderConfig(), &logging.NoOpLogger{})
	data, err := decoder.DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 22050, data.SampleRate)
	assert.Equal(t, 1, data.Channels)
	require.Len(t, data.PCM, 4)
	assert.InDelta(t, 0.25, data.PCM[0], 1e-9)
	assert.InDelta(t, -0.5, data.PCM[1], 1e-9)
	assert.InDelta(t, 0.25, data.PCM[2], 1e-9)
	assert.InDelta(t, 32767.0/32768, data.PCM[3], 1e-9)

	require.NotNil(t, data.Metadata)
	assert.Equal(t, 2, data.Metadata.SourceChannels)
	assert.Equal(t, 16, data.Metadata.BitDepth)
}

func TestWAVDecoderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file at all"), 0o644))

	_, err := NewWAVDecoder(nil, &logging.NoOpLogger{}).DecodeFile(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestIntBufferToFloat(t *testing.T) {
	eight := intBufferToFloat(&audio.IntBuffer{Data: []int{0, 128, 255}, SourceBitDepth: 8})
	assert.Equal(t, []float64{-1, 0, 127.0 / 128}, eight)

	twentyFour := intBufferToFloat(&audio.IntBuffer{Data: []int{1 << 22}, SourceBitDepth: 24})
	assert.Equal(t, []float64{0.5}, twentyFour)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, Downmix([]float64{1, 2}, 1))
	assert.Equal(t, []float64{0.5, 2}, Downmix([]float64{0, 1, 2, 2}, 2))
	// trailing partial frame is dropped
	assert.Equal(t, []float64{1}, Downmix([]float64{1, 1, 1, 5}, 3))
}

func TestResampleSameRate(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out, err := Resample(in, 22050, 22050)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Resample(in, 0, 22050)
	assert.Error(t, err)
}

func TestConformTruncatesToMaxDuration(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 100
	cfg.MaxDuration = 1_000_000_000 // 1s

	data, err := conform(make([]float64, 250), 100, 1, cfg, nil)
	require.NoError(t, err)
	assert.Len(t, data.PCM, 100)
	assert.Equal(t, int64(1_000_000_000), int64(data.Duration))
}

func TestBytesToFloat64(t *testing.T) {
	raw := make([]byte, 8*2+3)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(0.5))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(-1))

	assert.Equal(t, []float64{0.5, -1}, bytesToFloat64(raw))
	assert.Nil(t, bytesToFloat64([]byte{1, 2, 3}))
}

func TestInt16LEToFloat(t *testing.T) {
	raw := []byte{0x00, 0x40, 0x00, 0x80}
	assert.Equal(t, []float64{0.5, -1}, int16LEToFloat(raw))
}

func TestParseFFprobeOutput(t *testing.T) {
	probe, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"flac",
		"sample_rate":"44100","channels":2,"duration":"12.5","bit_rate":"900000",
		"codec_long_name":"FLAC (Free Lossless Audio Codec)"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 44100, probe.SampleRate)
	assert.Equal(t, 2, probe.Channels)
	assert.Equal(t, "flac", probe.Codec)
	assert.Equal(t, 12.5, probe.Duration)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","channels":0}]}`))
	assert.Error(t, err)
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	d := NewFFmpegDecoder(cfg, &logging.NoOpLogger{})

	args := d.buildFFmpegArgs(&ProbeResult{SampleRate: 22050})
	assert.Equal(t, []string{"-f", "f64le", "-ac", "1", "-ar", "22050", "-v", "error"}, args)

	cfg.NormalizationMethod = "dynaudnorm"
	args = d.buildFFmpegArgs(&ProbeResult{SampleRate: 44100})
	assert.Contains(t, args, "aresample=resampler=soxr:precision=28,dynaudnorm=p=0.95:m=10:s=12")
}

func TestMultiDecoder(t *testing.T) {
	m := NewMultiDecoder(nil, &logging.NoOpLogger{})

	assert.True(t, m.Supports("song.WAV"))
	assert.True(t, m.Supports("a/b/c.mp3"))
	assert.False(t, m.Supports("notes.txt"))
	assert.Contains(t, m.Extensions(), ".flac")

	_, err := m.DecodeFile(context.Background(), "cover.jpg")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	path := filepath.Join(t.TempDir(), "x.wav")
	writeStereoWAV(t, path, 22050, []int{0, 0}, []int{0, 0})
	data, err := m.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, data.PCM, 2)
}
