package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/database/memstore"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/ingest"
	"github.com/landmarked/landmarked/internal/landmarkerr"
)

func writeTestWAV(t *testing.T, path string, period int) {
	t.Helper()
	// A minimal 8-bit PCM mono WAV: ~512 ms of a sawtooth repeating every
	// period samples (period 64 is 125 Hz at 8000 Hz) is enough to exercise
	// decode+fingerprint without a real audio asset. Different periods give
	// files with different content hashes.
	const sampleRate = 8000
	const numSamples = 4096

	var data []byte
	for i := 0; i < numSamples; i++ {
		data = append(data, byte(128+i%period))
	}

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	putU32(header[4:8], uint32(36+len(data)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	putU32(header[16:20], 16)
	putU16(header[20:22], 1) // PCM
	putU16(header[22:24], 1) // mono
	putU32(header[24:28], sampleRate)
	putU32(header[28:32], sampleRate)
	putU16(header[32:34], 1)
	putU16(header[34:36], 8)
	copy(header[36:40], "data")
	putU32(header[40:44], uint32(len(data)))

	require.NoError(t, os.WriteFile(path, append(header, data...), 0o644))
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func TestFileIngestsAndDedupes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, path, 64)

	store := memstore.New()
	opts := ingest.Options{Params: fingerprint.DefaultParams()}

	id, err := ingest.File(store, path, "tone", opts)
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = ingest.File(store, path, "tone-again", opts)
	require.ErrorIs(t, err, landmarkerr.ErrDuplicateInput)
}

func TestDirectoryIngestsMatchingExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "a.wav"), 64)
	writeTestWAV(t, filepath.Join(dir, "b.wav"), 32)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not audio"), 0o644))

	store := memstore.New()
	opts := ingest.Options{Params: fingerprint.DefaultParams()}

	results, err := ingest.Directory(context.Background(), store, dir, nil, opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 2, counts.Tracks)
}

func TestDirectoryFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "a.wav"), 64)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.flac"), []byte("not real flac"), 0o644))

	store := memstore.New()
	opts := ingest.Options{Params: fingerprint.DefaultParams()}

	results, err := ingest.Directory(context.Background(), store, dir, []string{"wav"}, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

