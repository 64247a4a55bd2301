package fingerprint_test

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/fingerprint"
)

func TestHashTripletIsSHA1HexPrefix(t *testing.T) {
	peaks := []fingerprint.Peak{{Freq: 10, Time: 0}, {Freq: 20, Time: 3}}
	p := fingerprint.DefaultParams()

	hashes := fingerprint.Hash(peaks, p)
	require.Len(t, hashes, 1)

	want := sha1.Sum([]byte("10|20|3"))
	require.Equal(t, hex.EncodeToString(want[:])[:p.FingerprintReduction], hashes[0].Hash)
	require.Equal(t, 0, hashes[0].Offset)
}

func TestHashRespectsTimeDeltaRange(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.MinHashTimeDelta = 5
	p.MaxHashTimeDelta = 10

	peaks := []fingerprint.Peak{{Freq: 1, Time: 0}, {Freq: 2, Time: 3}, {Freq: 3, Time: 7}, {Freq: 4, Time: 20}}
	hashes := fingerprint.Hash(peaks, p)

	for _, h := range hashes {
		require.NotEmpty(t, h.Hash)
	}
	// Only the (0,7) pair (dt=7) falls in [5,10]; (0,3) dt=3 is too small,
	// (0,20)/(3,20)/(7,20) all exceed 10.
	require.Len(t, hashes, 1)
}

func TestHashIsDeterministic(t *testing.T) {
	peaks := []fingerprint.Peak{{Freq: 5, Time: 0}, {Freq: 9, Time: 2}, {Freq: 13, Time: 4}}
	p := fingerprint.DefaultParams()

	a := fingerprint.Hash(peaks, p)
	b := fingerprint.Hash(peaks, p)
	require.Equal(t, a, b)
}

func TestHashFanOutRespectsFanValue(t *testing.T) {
	p := fingerprint.DefaultParams()
	p.FanValue = 2
	p.MaxHashTimeDelta = 1000

	peaks := make([]fingerprint.Peak, 5)
	for i := range peaks {
		peaks[i] = fingerprint.Peak{Freq: i, Time: i}
	}

	hashes := fingerprint.Hash(peaks, p)
	// Anchor 0 fans to at most 2 targets, anchor 1 to at most 2, etc.,
	// with fewer available near the end of the slice.
	require.Len(t, hashes, 2+2+2+1)
}
