package spectral

import (
	"math"
)

// MelScale provides mel frequency conversion and filter bank construction
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// FilterPoints returns numFilters+2 band edges evenly spaced in mel between
// lowFreq and highFreq, both as Hz and as FFT bin indices floor((fftSize+1)/sr*f).
func (ms *MelScale) FilterPoints(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) ([]int, []float64) {
	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)

	count := numFilters + 2
	freqs := make([]float64, count)
	bins := make([]int, count)
	step := (highMel - lowMel) / float64(count-1)
	for i := range count {
		freqs[i] = ms.MelToHz(lowMel + float64(i)*step)
		bins[i] = int(math.Floor(float64(fftSize+1) / float64(sampleRate) * freqs[i]))
	}
	return bins, freqs
}

// CreateNormalizedFilterBank builds triangular filters over fftSize/2+1 bins.
// Each edge is an inclusive linear ramp between the filter points and every
// filter is scaled by 2/(f_hi - f_lo) so the filters have equal area.
func (ms *MelScale) CreateNormalizedFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}

	bins, freqs := ms.FilterPoints(numFilters, fftSize, sampleRate, lowFreq, highFreq)
	width := fftSize/2 + 1

	filterBank := make([][]float64, numFilters)
	for m := range numFilters {
		filter := make([]float64, width)
		fillRamp(filter, bins[m], bins[m+1], 0, 1)
		fillRamp(filter, bins[m+1], bins[m+2], 1, 0)

		span := freqs[m+2] - freqs[m]
		if span > 0 {
			norm := 2.0 / span
			for k := range filter {
				filter[k] *= norm
			}
		}
		filterBank[m] = filter
	}
	return filterBank
}

// fillRamp writes count=end-start evenly spaced values from `from` to `to`
// (both inclusive) into dst[start:end], clipped to dst.
func fillRamp(dst []float64, start, end int, from, to float64) {
	count := end - start
	if count <= 0 {
		return
	}
	for i := range count {
		k := start + i
		if k < 0 || k >= len(dst) {
			continue
		}
		if count == 1 {
			dst[k] = from
			continue
		}
		dst[k] = from + (to-from)*float64(i)/float64(count-1)
	}
}

// CreateMelFilterBank creates an unnormalized mel filter bank with peaks of 1
// and bin edges rounded to the nearest bin.
func (ms *MelScale) CreateMelFilterBank(numFilters int, fftSize int, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	binPoints := make([]int, numFilters+2)
	for i := range binPoints {
		hz := ms.MelToHz(lowMel + float64(i)*melStep)
		binPoints[i] = int(math.Floor((float64(fftSize)+1.0)*hz/float64(sampleRate) + 0.5))
		binPoints[i] = min(binPoints[i], fftSize/2)
	}

	filterBank := make([][]float64, numFilters)
	for m := 1; m <= numFilters; m++ {
		filter := make([]float64, fftSize/2+1)
		left, center, right := binPoints[m-1], binPoints[m], binPoints[m+1]

		for k := left; k < center; k++ {
			filter[k] = float64(k-left) / float64(center-left)
		}
		for k := center; k < right; k++ {
			filter[k] = float64(right-k) / float64(right-center)
		}
		filterBank[m-1] = filter
	}

	return filterBank
}

// ApplyFilterBank applies a mel filter bank to a power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	melSpectrum := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}
	return melSpectrum
}
