package align_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/align"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/database/memstore"
	"github.com/landmarked/landmarked/internal/match"
)

func TestTopCandidatesPicksLargestBucket(t *testing.T) {
	entries := []match.Entry{
		{TrackID: 1, OffsetDiff: 5},
		{TrackID: 1, OffsetDiff: 5},
		{TrackID: 1, OffsetDiff: 5},
		{TrackID: 1, OffsetDiff: 9},
		{TrackID: 2, OffsetDiff: 3},
	}

	cands := align.TopCandidates(entries, 5)
	require.Len(t, cands, 2)
	require.Equal(t, int64(1), cands[0].TrackID)
	require.Equal(t, 5, cands[0].OffsetDiff)
	require.EqualValues(t, 3, cands[0].HashesMatched)
	require.Equal(t, int64(2), cands[1].TrackID)
}

func TestTopCandidatesTieBreaksOnSmallerOffset(t *testing.T) {
	entries := []match.Entry{
		{TrackID: 1, OffsetDiff: 9},
		{TrackID: 1, OffsetDiff: 9},
		{TrackID: 1, OffsetDiff: 2},
		{TrackID: 1, OffsetDiff: 2},
	}

	cands := align.TopCandidates(entries, 5)
	require.Len(t, cands, 1)
	require.Equal(t, 2, cands[0].OffsetDiff)
}

func TestTopCandidatesRespectsTopN(t *testing.T) {
	entries := []match.Entry{
		{TrackID: 1, OffsetDiff: 0},
		{TrackID: 2, OffsetDiff: 0},
		{TrackID: 2, OffsetDiff: 0},
		{TrackID: 3, OffsetDiff: 0},
		{TrackID: 3, OffsetDiff: 0},
		{TrackID: 3, OffsetDiff: 0},
	}

	cands := align.TopCandidates(entries, 2)
	require.Len(t, cands, 2)
	require.Equal(t, int64(3), cands[0].TrackID)
	require.Equal(t, int64(2), cands[1].TrackID)
}

func TestTopCandidatesEmptyInput(t *testing.T) {
	require.Nil(t, align.TopCandidates(nil, 5))
}

func TestAlignAttachesTrackMetadataAndConfidence(t *testing.T) {
	store := memstore.New()
	id, err := store.InsertTrack("track-a", "sha1-a", 0)
	require.NoError(t, err)
	require.NoError(t, store.SetTrackFingerprinted(id, 10))

	entries := []match.Entry{
		{TrackID: id, OffsetDiff: 4},
		{TrackID: id, OffsetDiff: 4},
		{TrackID: id, OffsetDiff: 4},
		{TrackID: id, OffsetDiff: 4},
		{TrackID: id, OffsetDiff: 4},
	}

	results, err := align.Align(store, entries, 20, 4096, 0.5, 44100, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Equal(t, "track-a", r.TrackName)
	require.Equal(t, "sha1-a", r.FileSHA1)
	require.EqualValues(t, 5, r.HashesMatchedInInput)
	require.InDelta(t, 0.25, r.InputConfidence, 1e-9)
	require.InDelta(t, 0.5, r.FingerprintedConfidence, 1e-9)
	require.Equal(t, 4, r.Offset)
	require.InDelta(t, 4*4096*0.5/44100, r.OffsetSeconds, 1e-4)
}

func TestAlignNoMatches(t *testing.T) {
	store := memstore.New()
	results, err := align.Align(store, nil, 10, 4096, 0.5, 44100, 2)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestAlignSkipsMissingTrack(t *testing.T) {
	store := memstore.New()
	entries := []match.Entry{{TrackID: 999, OffsetDiff: 0}}
	results, err := align.Align(store, entries, 1, 4096, 0.5, 44100, 2)
	require.NoError(t, err)
	require.Empty(t, results)
}

var _ database.Store = (*memstore.Store)(nil)
