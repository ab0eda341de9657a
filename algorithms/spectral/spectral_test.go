package spectral

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestTransformsAgree(t *testing.T) {
	frame := sine(1000, 8000, 64)

	a := Magnitude(NewFFT().OneSided(frame))
	b := Magnitude(NewRealFFT(64).OneSided(frame))

	require.Len(t, a, 33)
	require.Len(t, b, 33)
	assert.InDeltaSlice(t, a, b, 1e-9)

	// 1000 Hz at 8000 Hz with 64 points lands on bin 8
	peak := 0
	for k := range a {
		if a[k] > a[peak] {
			peak = k
		}
	}
	assert.Equal(t, 8, peak)
}

func TestBinFrequencies(t *testing.T) {
	freqs := BinFrequencies(5, 8000)
	assert.Equal(t, []float64{0, 1000, 2000, 3000, 4000}, freqs)
}

func TestCentroid(t *testing.T) {
	sc := NewSpectralCentroid(8000)
	// all weight on bin 2 (2000 Hz)
	assert.InDelta(t, 2000.0, sc.Compute([]float64{0, 0, 1, 0, 0}), 1e-9)
	// equal weight on 1000 and 3000 Hz
	assert.InDelta(t, 2000.0, sc.Compute([]float64{0, 1, 0, 1, 0}), 1e-9)
	assert.Equal(t, 0.0, sc.Compute([]float64{0, 0, 0, 0, 0}))
}

func TestBandwidthKeepsDivisionByOrder(t *testing.T) {
	sb := NewSpectralBandwidth(8000, 2)
	spectrum := []float64{0, 1, 0, 1, 0}

	// |X|*(f-c)^2 summed: 1000^2 + 1000^2, divided by the order
	assert.InDelta(t, 1e6, sb.Compute(spectrum, 2000), 1e-6)
	// normalized root form: sqrt((1e6+1e6)/2)
	assert.InDelta(t, 1000.0, sb.Corrected(spectrum, 2000), 1e-9)
}

func TestFlatness(t *testing.T) {
	sf := NewSpectralFlatness()

	white := []float64{1, 1, 1, 1}
	assert.InDelta(t, 0.0, sf.ComputeDB(white), 1e-12)
	assert.InDelta(t, 1.0, sf.Compute(white), 1e-12)

	peaky := []float64{1, 1e-3, 1e-3, 1e-3}
	assert.Less(t, sf.ComputeDB(peaky), 0.0)

	assert.True(t, math.IsInf(sf.ComputeDB([]float64{0, 1, 1}), -1))
}

func TestRolloff(t *testing.T) {
	sr := NewSpectralRolloff(8000)
	spectrum := []float64{1, 1, 1, 1, 6}

	// cumulative 1,2,3,4,10 against 0.85*10 = 8.5
	assert.Equal(t, 4000.0, sr.Compute(spectrum, 0.85))
	assert.Equal(t, 0.0, sr.Compute(spectrum, 0.1))
	assert.Equal(t, 4000.0, sr.ComputeEnergy(spectrum, 0.85))

	assert.Equal(t, 4, sr.Bin(spectrum, 0.85))
	assert.Equal(t, 0, sr.Bin(spectrum, 0.1))
	assert.Equal(t, 2, sr.Bin([]float64{0, 5, 5, 0}, 0.85))
	assert.Equal(t, -1, sr.Bin(nil, 0.85))
	assert.Equal(t, []float64{4, 2, 0}, sr.BinFrames([][]float64{spectrum, {0, 5, 5, 0}, {}}, 0.85))
}

func TestNormalizedFilterBank(t *testing.T) {
	ms := NewMelScale()
	bins, freqs := ms.FilterPoints(10, 2048, 22050, 0, 11025)
	require.Len(t, bins, 12)
	assert.Equal(t, 0, bins[0])
	assert.Equal(t, 1024, bins[11])
	assert.InDelta(t, 11025.0, freqs[11], 1e-6)

	bank := ms.CreateNormalizedFilterBank(10, 2048, 22050, 0, 11025)
	require.Len(t, bank, 10)
	for m, filter := range bank {
		require.Len(t, filter, 1025)
		// rising ramp starts at zero on the left edge
		assert.Equal(t, 0.0, filter[bins[m]], "filter %d", m)
		// peak sits on the centre point, scaled by 2/(f_hi-f_lo)
		assert.InDelta(t, 2.0/(freqs[m+2]-freqs[m]), filter[bins[m+1]], 1e-12, "filter %d", m)
	}
}

func TestDCTBasisOrthonormal(t *testing.T) {
	basis := DCTBasis(10, 10)
	for i := range basis {
		for j := range basis {
			dot := 0.0
			for k := range basis[i] {
				dot += basis[i][k] * basis[j][k]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, dot, 1e-9)
		}
	}
}

func TestMFCCShape(t *testing.T) {
	m := NewMFCCWithParams(22050, DefaultMFCCParams())
	require.NoError(t, m.Initialize(2048))

	frames := make([][]float64, 7)
	ps := NewPowerSpectrum()
	for i := range frames {
		frames[i] = ps.Compute(Magnitude(NewFFT().OneSided(sine(440*float64(i+1), 22050, 2048))))
	}

	out, err := m.ComputeFrames(frames)
	require.NoError(t, err)
	require.Len(t, out, 13)
	for _, row := range out {
		assert.Len(t, row, 7)
	}

	_, err = m.Compute([]float64{1})
	assert.Error(t, err)
}

func TestReferenceMFCCIsFinite(t *testing.T) {
	m := NewMFCCWithParams(22050, MFCCParams{
		NumCoefficients: 13,
		NumMelFilters:   40,
		Log:             LogNatural,
		UseLiftering:    true,
	})
	require.NoError(t, m.Initialize(2048))

	power := make([]float64, 1025)
	coeffs, err := m.Compute(power)
	require.NoError(t, err)
	for _, c := range coeffs {
		assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
	}
}

func TestMFCCSharedAcrossGoroutines(t *testing.T) {
	m := NewMFCCWithParams(22050, MFCCParams{NumCoefficients: 13, NumMelFilters: 10, Log: LogNatural})
	require.NoError(t, m.Initialize(1023))
	bank := m.GetFilterBank()

	ps := NewPowerSpectrum()
	power := ps.Compute(Magnitude(NewRealFFT(1023).OneSided(sine(440, 22050, 1023))))
	require.Len(t, power, 512)
	want, err := m.Compute(power)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float64, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Compute(power)
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
	assert.Same(t, &bank[0][0], &m.GetFilterBank()[0][0], "filter bank is never rebuilt")

	_, err = m.Compute(make([]float64, 513))
	assert.Error(t, err)
	_, err = NewMFCCWithParams(22050, DefaultMFCCParams()).Compute(power)
	assert.Error(t, err)
}

func TestContrast(t *testing.T) {
	sc := NewSpectralContrast(22050, 7)
	spectrum := Magnitude(NewFFT().OneSided(sine(3000, 22050, 2048)))

	out := sc.ComputeFrames([][]float64{spectrum, spectrum})
	require.Len(t, out, 7)
	for _, row := range out {
		require.Len(t, row, 2)
		assert.GreaterOrEqual(t, row[0], 0.0)
	}
}

func TestPeakNormalize(t *testing.T) {
	assert.Equal(t, []float64{0.5, -1, 0.25}, PeakNormalize([]float64{2, -4, 1}))
	assert.Equal(t, []float64{0, 0}, PeakNormalize([]float64{0, 0}))
}
