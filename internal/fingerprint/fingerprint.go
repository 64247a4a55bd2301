package fingerprint

// Result bundles everything the ingestion worker and recognition façade
// both need after fingerprinting a file: the deduplicated set of
// (hash, offset) tuples (unioned across channels, per spec.md §3; one
// hash may appear at several offsets) and the content hash used
// for ingest dedup.
type Result struct {
	Hashes      []Fingerprint
	ContentSHA1 string
	SampleRate  int
}

// Process runs decode -> spectrogram -> peaks -> hash for every channel
// of the file at path and unions the resulting hash sets, per the
// worker contract in spec.md §4.4. limitSeconds, if > 0, truncates each
// channel to that many leading seconds before fingerprinting (the
// fingerprint_limit config key).
func Process(path string, p Params, limitSeconds float64) (Result, error) {
	audio, err := Decode(path)
	if err != nil {
		return Result{}, err
	}
	return ProcessSamples(audio, p, limitSeconds), nil
}

// ProcessSamples runs the spectrogram/peak/hash stages over already
// decoded audio. Exposed separately so recognition (which works over an
// in-memory clip, not always a file) can reuse it.
func ProcessSamples(audio DecodedAudio, p Params, limitSeconds float64) Result {
	params := p
	if params.SampleRate == 0 {
		params.SampleRate = audio.SampleRate
	}

	seen := make(map[Fingerprint]bool) // (hash, offset) tuples, for dedup
	var hashes []Fingerprint
	for _, samples := range audio.Channels {
		if limitSeconds > 0 {
			maxSamples := int(limitSeconds * float64(audio.SampleRate))
			if maxSamples < len(samples) {
				samples = samples[:maxSamples]
			}
		}

		spec := BuildSpectrogram(samples, params)
		peaks := PickPeaks(spec, params)
		for _, fp := range Hash(peaks, params) {
			if !seen[fp] {
				seen[fp] = true
				hashes = append(hashes, fp)
			}
		}
	}

	return Result{Hashes: hashes, ContentSHA1: audio.ContentSHA1, SampleRate: audio.SampleRate}
}
