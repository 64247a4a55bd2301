package landmark

import (
	"time"

	"go.uber.org/zap"

	"github.com/landmarked/landmarked/internal/align"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/landmarkerr"
	"github.com/landmarked/landmarked/internal/match"
	"github.com/landmarked/landmarked/internal/telemetry"
)

// RecognitionResult is one ranked identification, with the exact field
// names and wire tags spec.md §6 lists for the recognition result object.
type RecognitionResult struct {
	SongID                  int64   `json:"song_id"`
	SongName                string  `json:"song_name"`
	FileSHA1                string  `json:"file_sha1"`
	InputTotalHashes        int64   `json:"input_total_hashes"`
	FingerprintedHashesInDB int64   `json:"fingerprinted_hashes_in_db"`
	HashesMatchedInInput    int64   `json:"hashes_matched_in_input"`
	InputConfidence         float64 `json:"input_confidence"`
	FingerprintedConfidence float64 `json:"fingerprinted_confidence"`
	Offset                  int     `json:"offset"`
	OffsetSeconds           float64 `json:"offset_seconds"`
}

// RecognitionResponse bundles the timing fields spec.md §6 requires
// alongside the capped, ranked result list.
type RecognitionResponse struct {
	TotalTime       time.Duration       `json:"total_time"`
	FingerprintTime time.Duration       `json:"fingerprint_time"`
	QueryTime       time.Duration       `json:"query_time"`
	AlignTime       time.Duration       `json:"align_time"`
	Results         []RecognitionResult `json:"results"`
}

// Recognize fingerprints the audio at path and matches it against the
// store, returning up to Config.Fingerprint.TopN ranked results. It
// never returns landmarkerr.ErrNoMatch; an empty Results list is how a
// non-match is reported (spec.md §4.6's alignment never raises).
func (a *App) Recognize(path string) (RecognitionResponse, error) {
	totalStart := time.Now()

	fpStart := time.Now()
	result, err := fingerprint.Process(path, a.params(), 0)
	fingerprintTime := time.Since(fpStart)
	if err != nil {
		return RecognitionResponse{}, landmarkerr.NewRecognitionError(landmarkerr.StageDecode, err)
	}

	response, err := a.recognizeHashes(result.Hashes, totalStart, fingerprintTime)
	if err != nil {
		return RecognitionResponse{}, err
	}
	telemetry.Info("recognized file", zap.String("path", path), zap.Int("results", len(response.Results)))
	return response, nil
}

// RecognizeSamples is Recognize's entry point for already-decoded audio
// (e.g. a microphone snapshot), bypassing the file decoder.
func (a *App) RecognizeSamples(audio fingerprint.DecodedAudio) (RecognitionResponse, error) {
	totalStart := time.Now()

	fpStart := time.Now()
	result := fingerprint.ProcessSamples(audio, a.params(), 0)
	fingerprintTime := time.Since(fpStart)

	return a.recognizeHashes(result.Hashes, totalStart, fingerprintTime)
}

func (a *App) recognizeHashes(hashes []fingerprint.Fingerprint, totalStart time.Time, fingerprintTime time.Duration) (RecognitionResponse, error) {
	batchSize := a.Config.BatchSize
	if batchSize <= 0 {
		batchSize = database.DefaultBatchSize
	}

	matchResult, err := match.Find(a.Store, hashes, batchSize)
	if err != nil {
		return RecognitionResponse{}, landmarkerr.NewRecognitionError(landmarkerr.StageQuery, err)
	}

	topN := a.Config.Fingerprint.TopN
	if topN <= 0 {
		topN = 2
	}

	alignStart := time.Now()
	aligned, err := align.Align(a.Store, matchResult.Entries, int64(len(hashes)), a.Config.Fingerprint.WindowSize, a.Config.Fingerprint.OverlapRatio, a.Config.Fingerprint.SampleRate, topN)
	alignTime := time.Since(alignStart)
	if err != nil {
		return RecognitionResponse{}, landmarkerr.NewRecognitionError(landmarkerr.StageAlign, err)
	}

	results := make([]RecognitionResult, 0, len(aligned))
	for _, r := range aligned {
		if a.Config.MinConfidence > 0 && r.InputConfidence < a.Config.MinConfidence {
			continue
		}
		results = append(results, RecognitionResult{
			SongID:                  r.TrackID,
			SongName:                r.TrackName,
			FileSHA1:                r.FileSHA1,
			InputTotalHashes:        r.InputTotalHashes,
			FingerprintedHashesInDB: r.FingerprintedHashesInDB,
			HashesMatchedInInput:    r.HashesMatchedInInput,
			InputConfidence:         r.InputConfidence,
			FingerprintedConfidence: r.FingerprintedConfidence,
			Offset:                  r.Offset,
			OffsetSeconds:           r.OffsetSeconds,
		})
	}

	return RecognitionResponse{
		TotalTime:       time.Since(totalStart),
		FingerprintTime: fingerprintTime,
		QueryTime:       matchResult.QueryTime,
		AlignTime:       alignTime,
		Results:         results,
	}, nil
}
