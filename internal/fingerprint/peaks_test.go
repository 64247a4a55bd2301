package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/fingerprint"
)

func TestPickPeaksEmptySpectrogramYieldsNoPeaks(t *testing.T) {
	p := fingerprint.DefaultParams()
	spec := fingerprint.Spectrogram{Frames: nil, FreqBins: p.WindowSize/2 + 1, Params: p}
	require.Empty(t, fingerprint.PickPeaks(spec, p))
}

func TestPickPeaksFindsIsolatedSpike(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.PeakNeighborhood = 1
	p.AmpMin = 5

	frames := make([][]float64, 5)
	for t := range frames {
		frames[t] = make([]float64, 5)
	}
	frames[2][2] = 100 // single, isolated spike well above AmpMin

	spec := fingerprint.Spectrogram{Frames: frames, FreqBins: 5, Params: p}
	peaks := fingerprint.PickPeaks(spec, p)

	require.Len(t, peaks, 1)
	require.Equal(t, fingerprint.Peak{Freq: 2, Time: 2}, peaks[0])
}

func TestPickPeaksRespectsAmplitudeFloor(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.PeakNeighborhood = 1
	p.AmpMin = 50

	frames := [][]float64{
		{0, 0, 0},
		{0, 10, 0}, // isolated but below AmpMin
		{0, 0, 0},
	}
	spec := fingerprint.Spectrogram{Frames: frames, FreqBins: 3, Params: p}
	require.Empty(t, fingerprint.PickPeaks(spec, p))
}

func TestPickPeaksOrderedByTimeThenFrequency(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.PeakNeighborhood = 1
	p.AmpMin = 5

	frames := make([][]float64, 4)
	for t := range frames {
		frames[t] = make([]float64, 6)
	}
	frames[0][1] = 100
	frames[0][4] = 100
	frames[3][2] = 100

	spec := fingerprint.Spectrogram{Frames: frames, FreqBins: 6, Params: p}
	peaks := fingerprint.PickPeaks(spec, p)
	require.Len(t, peaks, 3)

	for i := 1; i < len(peaks); i++ {
		prev, cur := peaks[i-1], peaks[i]
		require.True(t, cur.Time > prev.Time || (cur.Time == prev.Time && cur.Freq > prev.Freq))
	}
}
