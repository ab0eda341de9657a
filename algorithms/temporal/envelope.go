package temporal

import (
	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
)

// Envelope provides amplitude envelope extraction
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes the RMS envelope over unpadded frames of frameSize
// samples taken every hopSize samples.
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)
	for i := range numFrames {
		start := i * hopSize
		envelope[i] = common.RMS(signal[start : start+frameSize])
	}
	return envelope
}
