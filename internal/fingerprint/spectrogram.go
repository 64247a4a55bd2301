package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
)

// Spectrogram is a 2-D grid of log-power values indexed S[t][f]: t is
// the time frame, f the frequency bin in [0, WindowSize/2].
type Spectrogram struct {
	Frames   [][]float64
	FreqBins int
	Params   Params
}

// T returns the number of time frames.
func (s Spectrogram) T() int { return len(s.Frames) }

// At returns the log-power value at time frame t, frequency bin f.
func (s Spectrogram) At(t, f int) float64 { return s.Frames[t][f] }

// hanningWindow returns a Hanning window of length n and the sum of its
// squared coefficients, used to normalize power per spec.md §4.1/§9.
func hanningWindow(n int) (window []float64, sumSquares float64) {
	window = make([]float64, n)
	if n == 1 {
		window[0] = 1
		return window, 1
	}
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		window[i] = w
		sumSquares += w * w
	}
	return window, sumSquares
}

// BuildSpectrogram computes the Hanning-windowed STFT power spectrogram
// of a mono sample sequence, per spec.md §4.1: NFFT = p.WindowSize,
// noverlap = floor(WindowSize*OverlapRatio), one-sided power scaled by
// the window's sum-of-squares, log-power = 10*log10(P) with P==0
// mapped to 0 instead of -Inf.
func BuildSpectrogram(samples []float64, p Params) Spectrogram {
	window, winSqSum := hanningWindow(p.WindowSize)
	hop := p.HopSize()

	numBins := p.WindowSize/2 + 1
	var frames [][]float64

	if len(samples) >= p.WindowSize && hop > 0 {
		for start := 0; start+p.WindowSize <= len(samples); start += hop {
			frame := make([]float64, p.WindowSize)
			for i := 0; i < p.WindowSize; i++ {
				frame[i] = samples[start+i] * window[i]
			}

			spectrum := fft.FFTReal(frame)
			power := make([]float64, numBins)
			isNyquist := p.WindowSize%2 == 0
			for f := 0; f < numBins; f++ {
				mag := cmplx.Abs(spectrum[f])
				pw := (mag * mag) / winSqSum
				if f != 0 && !(isNyquist && f == numBins-1) {
					pw *= 2
				}
				power[f] = logPower(pw)
			}
			frames = append(frames, power)
		}
	}

	return Spectrogram{Frames: frames, FreqBins: numBins, Params: p}
}

// logPower computes 10*log10(x), mapping 0 (and any non-positive, which
// should not occur for a real power spectrum) to 0 instead of -Inf/NaN.
func logPower(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return 10 * math.Log10(x)
}
