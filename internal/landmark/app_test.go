package landmark_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/landmarked/landmarked/internal/config"
	"github.com/landmarked/landmarked/internal/database/memstore"
	"github.com/landmarked/landmarked/internal/landmark"
)

func writeSineWAV(t *testing.T, path string, sampleRate, seconds int, freq func(tSec float64) float64) {
	t.Helper()
	n := sampleRate * seconds
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		tSec := float64(i) / float64(sampleRate)
		v := math.Sin(2 * math.Pi * freq(tSec) * tSec)
		s := int16(v * 32000)
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	putU32(header[4:8], uint32(36+len(data)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	putU32(header[16:20], 16)
	putU16(header[20:22], 1)
	putU16(header[22:24], 1)
	putU32(header[24:28], uint32(sampleRate))
	putU32(header[28:32], uint32(sampleRate*2))
	putU16(header[32:34], 2)
	putU16(header[34:36], 16)
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

func newTestApp(t *testing.T) *landmark.App {
	t.Helper()
	store := memstore.New()
	cfg := config.Default()
	cfg.Fingerprint.SampleRate = 8000
	app, err := landmark.New(store, cfg)
	require.NoError(t, err)
	return app
}

func TestIngestThenRecognizeIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.wav")
	writeSineWAV(t, path, 8000, 5, func(tSec float64) float64 { return 200 + 400*tSec })

	app := newTestApp(t)
	_, err := app.Ingest(path, "sweep")
	require.NoError(t, err)

	resp, err := app.Recognize(path)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	require.Equal(t, "sweep", resp.Results[0].SongName)
	require.Equal(t, 0, resp.Results[0].Offset)
}

func TestIngestDuplicateIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.wav")
	writeSineWAV(t, path, 8000, 5, func(tSec float64) float64 { return 200 + 400*tSec })

	app := newTestApp(t)
	_, err := app.Ingest(path, "sweep")
	require.NoError(t, err)

	_, err = app.Ingest(path, "sweep-again")
	require.Error(t, err)
}

func TestRecognizeNoMatchReturnsEmptyResults(t *testing.T) {
	app := newTestApp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "silence.wav")
	writeSineWAV(t, path, 8000, 2, func(float64) float64 { return 0 })

	resp, err := app.Recognize(path)
	require.NoError(t, err)
	require.Empty(t, resp.Results)
}

func TestListDeleteCleanupCounts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.wav")
	writeSineWAV(t, path, 8000, 3, func(tSec float64) float64 { return 300 + 200*tSec })

	app := newTestApp(t)
	id, err := app.Ingest(path, "sweep")
	require.NoError(t, err)

	tracks, err := app.List()
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	counts, err := app.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts.Tracks)

	require.NoError(t, app.Cleanup())
	tracks, err = app.List()
	require.NoError(t, err)
	require.Len(t, tracks, 1, "fingerprinted track must survive cleanup")

	require.NoError(t, app.Delete(id))
	tracks, err = app.List()
	require.NoError(t, err)
	require.Empty(t, tracks)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSineWAV(t, filepath.Join(dir, "a.wav"), 8000, 3, func(tSec float64) float64 { return 300 })
	writeSineWAV(t, filepath.Join(dir, "b.wav"), 8000, 3, func(tSec float64) float64 { return 600 })

	app := newTestApp(t)
	results, err := app.IngestDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	counts, err := app.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 2, counts.Tracks)
}
