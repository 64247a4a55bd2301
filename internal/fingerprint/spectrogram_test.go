package fingerprint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/fingerprint"
)

func sineWave(sampleRate int, freq float64, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestBuildSpectrogramFrameCount(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.WindowSize = 1024
	p.OverlapRatio = 0.5

	samples := sineWave(44100, 440, 1.0)
	spec := fingerprint.BuildSpectrogram(samples, p)

	hop := p.HopSize()
	wantFrames := (len(samples)-p.WindowSize)/hop + 1
	require.Equal(t, wantFrames, spec.T())
	require.Equal(t, p.WindowSize/2+1, spec.FreqBins)
}

func TestBuildSpectrogramShortInputYieldsNoFrames(t *testing.T) {
	p := fingerprint.DefaultParams()
	samples := make([]float64, p.WindowSize-1)
	spec := fingerprint.BuildSpectrogram(samples, p)
	require.Equal(t, 0, spec.T())
}

func TestBuildSpectrogramIsDeterministic(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.WindowSize = 512
	samples := sineWave(44100, 1000, 0.2)

	a := fingerprint.BuildSpectrogram(samples, p)
	b := fingerprint.BuildSpectrogram(samples, p)
	require.Equal(t, a.Frames, b.Frames)
}

func TestBuildSpectrogramPeaksNearExpectedBin(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.WindowSize = 2048
	p.SampleRate = 44100

	freq := 1000.0
	samples := sineWave(p.SampleRate, freq, 1.0)
	spec := fingerprint.BuildSpectrogram(samples, p)
	require.Greater(t, spec.T(), 0)

	wantBin := int(freq * float64(p.WindowSize) / float64(p.SampleRate))

	midFrame := spec.T() / 2
	bestBin, bestVal := 0, math.Inf(-1)
	for f := 0; f < spec.FreqBins; f++ {
		if v := spec.At(midFrame, f); v > bestVal {
			bestVal, bestBin = v, f
		}
	}
	require.InDelta(t, wantBin, bestBin, 2)
}
