package fingerprint

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// DecodedAudio is what the decoder adapter hands the rest of the
// pipeline: one float64 sample sequence per channel, the sample rate,
// and a content hash of the source bytes (spec.md §2.1).
type DecodedAudio struct {
	SampleRate  int
	Channels    [][]float64
	ContentSHA1 string
}

// Decode reads an audio file (WAV, MP3 or FLAC, chosen by extension),
// delegating container parsing to faiface/beep, and returns its PCM
// samples split per channel. Multi-channel inputs are split into
// independent sequences per spec.md §3; fingerprints of all channels are
// unioned by the caller.
func Decode(path string) (DecodedAudio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DecodedAudio{}, fmt.Errorf("reading %s: %w", path, err)
	}
	sum := sha1.Sum(raw)

	streamer, format, err := decodeByExtension(path, raw)
	if err != nil {
		return DecodedAudio{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer streamer.Close()

	numChannels := format.NumChannels
	if numChannels < 1 {
		numChannels = 1
	}
	if numChannels > 2 {
		numChannels = 2
	}

	channels := make([][]float64, numChannels)
	const chunk = 4096
	buf := make([][2]float64, chunk)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			channels[0] = append(channels[0], buf[i][0])
			if numChannels == 2 {
				channels[1] = append(channels[1], buf[i][1])
			}
		}
		if !ok {
			break
		}
	}

	return DecodedAudio{
		SampleRate:  int(format.SampleRate),
		Channels:    channels,
		ContentSHA1: hex.EncodeToString(sum[:]),
	}, nil
}

func decodeByExtension(path string, raw []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := io.NopCloser(bytes.NewReader(raw))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(r)
	case ".mp3":
		return mp3.Decode(r)
	case ".flac":
		return flac.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio container: %s", filepath.Ext(path))
	}
}
