// Package fingerprint implements the signal-processing core: spectrogram
// generation, peak picking, and anchor-fan hashing, plus the decoder
// adapter that feeds it raw PCM. Every exported algorithm here is a pure
// function of its inputs and Params so that two processes fingerprinting
// the same audio with the same Params produce bitwise-identical hashes.
package fingerprint

// Params collects every tunable named in spec.md §6's fingerprinting
// overrides. The zero Params value is not usable (e.g. WindowSize 0);
// use DefaultParams and override individual fields.
type Params struct {
	SampleRate           int     // DEFAULT_FS
	WindowSize           int     // DEFAULT_WINDOW_SIZE, power of two
	OverlapRatio         float64 // DEFAULT_OVERLAP_RATIO, in [0,1)
	FanValue             int     // DEFAULT_FAN_VALUE
	AmpMin               float64 // DEFAULT_AMP_MIN
	PeakNeighborhood     int     // PEAK_NEIGHBORHOOD_SIZE
	MinHashTimeDelta     int     // MIN_HASH_TIME_DELTA, frames
	MaxHashTimeDelta     int     // MAX_HASH_TIME_DELTA, frames
	FingerprintReduction int     // FINGERPRINT_REDUCTION, hex chars
	ConnectivityMask     int     // CONNECTIVITY_MASK: 1=diamond, 2=square
}

// DefaultParams matches spec.md §4's defaults.
func DefaultParams() Params {
	return Params{
		SampleRate:           44100,
		WindowSize:           4096,
		OverlapRatio:         0.5,
		FanValue:             15,
		AmpMin:               10,
		PeakNeighborhood:     10,
		MinHashTimeDelta:     0,
		MaxHashTimeDelta:     200,
		FingerprintReduction: 20,
		ConnectivityMask:     2,
	}
}

// HopSize returns the STFT hop size W - floor(W*r).
func (p Params) HopSize() int {
	noverlap := int(float64(p.WindowSize) * p.OverlapRatio)
	return p.WindowSize - noverlap
}
