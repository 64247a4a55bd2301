package match_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/database/memstore"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/match"
)

func TestFindEmptyQueryReturnsNoEntries(t *testing.T) {
	store := memstore.New()
	result, err := match.Find(store, nil, 1000)
	require.NoError(t, err)
	require.Empty(t, result.Entries)
	require.Empty(t, result.HitCounts)
}

func TestFindComputesOffsetDiff(t *testing.T) {
	store := memstore.New()
	trackID, err := store.InsertTrack("track-a", "sha1-a", 0)
	require.NoError(t, err)
	require.NoError(t, store.InsertHashes(trackID, []database.HashOffset{
		{Hash: "aaaa", Offset: 50},
	}, 1000))
	require.NoError(t, store.SetTrackFingerprinted(trackID, 1))

	query := []fingerprint.Fingerprint{{Hash: "aaaa", Offset: 10}}
	result, err := match.Find(store, query, 1000)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, trackID, result.Entries[0].TrackID)
	require.Equal(t, 40, result.Entries[0].OffsetDiff)
	require.EqualValues(t, 1, result.HitCounts[trackID])
}

func TestFindRepeatedQueryOffsetsEachProduceAnEntry(t *testing.T) {
	store := memstore.New()
	trackID, err := store.InsertTrack("track-a", "sha1-a", 0)
	require.NoError(t, err)
	require.NoError(t, store.InsertHashes(trackID, []database.HashOffset{
		{Hash: "aaaa", Offset: 100},
	}, 1000))
	require.NoError(t, store.SetTrackFingerprinted(trackID, 1))

	query := []fingerprint.Fingerprint{
		{Hash: "aaaa", Offset: 10},
		{Hash: "aaaa", Offset: 20},
	}
	result, err := match.Find(store, query, 1000)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
}

func TestFindNoMatchingHashes(t *testing.T) {
	store := memstore.New()
	query := []fingerprint.Fingerprint{{Hash: "zzzz", Offset: 0}}
	result, err := match.Find(store, query, 1000)
	require.NoError(t, err)
	require.Empty(t, result.Entries)
}
