package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Fingerprint is a (hash, anchor-offset) tuple, spec.md §3's hash record
// absent the track id (the caller attaches that at insert time).
type Fingerprint struct {
	Hash   string
	Offset int
}

// Hash computes the temporally-sorted peaks into an anchor-fan hash set,
// per spec.md §4.3. Peaks MUST already be in (time, freq) order, as
// produced by PickPeaks; the hasher does not re-sort them. The returned
// hashes are bitwise identical for any two implementations given the
// same peaks and Params, because the hash input is the canonical
// decimal-ASCII string "f1|f2|dt" with no padding.
func Hash(peaks []Peak, p Params) []Fingerprint {
	var out []Fingerprint
	reduction := p.FingerprintReduction
	if reduction <= 0 || reduction > 40 {
		reduction = 40
	}

	for i := 0; i < len(peaks); i++ {
		anchor := peaks[i]
		for j := 1; j <= p.FanValue && i+j < len(peaks); j++ {
			target := peaks[i+j]
			dt := target.Time - anchor.Time
			if dt < p.MinHashTimeDelta || dt > p.MaxHashTimeDelta {
				continue
			}
			out = append(out, Fingerprint{
				Hash:   hashTriplet(anchor.Freq, target.Freq, dt, reduction),
				Offset: anchor.Time,
			})
		}
	}
	return out
}

// hashTriplet formats (f1, f2, dt) as the canonical "f1|f2|dt" string
// and returns the first n hex characters of its SHA-1 digest.
func hashTriplet(f1, f2, dt, n int) string {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendInt(buf, int64(f1), 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, int64(f2), 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, int64(dt), 10)

	sum := sha1.Sum(buf)
	return hex.EncodeToString(sum[:])[:n]
}
