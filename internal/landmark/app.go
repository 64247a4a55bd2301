// Package landmark is the public façade over the fingerprinting,
// ingestion, matching, and alignment packages: it is the one type
// cmd/landmarked (and any other caller) needs to hold.
package landmark

import (
	"context"
	"sync"

	"github.com/landmarked/landmarked/internal/config"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/ingest"
)

// App owns the store connection plus the process-wide set of content
// hashes already ingested, per spec.md §9's "global mutable state" note:
// the set is loaded from the store's fingerprinted tracks once, in New,
// and each ingest through this App adds the content hash it stored. The
// set is not reloaded from the store afterwards, so tracks added by other
// processes or removed with Delete are not reflected in it.
type App struct {
	Store  database.Store
	Config config.Config

	seenMu sync.Mutex
	seen   map[string]bool
}

// New builds an App against an already-open store, loading the seen-hash
// set from it.
func New(store database.Store, cfg config.Config) (*App, error) {
	app := &App{Store: store, Config: cfg, seen: make(map[string]bool)}
	if err := app.refreshSeen(); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) refreshSeen() error {
	tracks, err := a.Store.GetTracks()
	if err != nil {
		return err
	}
	a.seenMu.Lock()
	defer a.seenMu.Unlock()
	for _, t := range tracks {
		a.seen[t.ContentSHA1] = true
	}
	return nil
}

func (a *App) params() fingerprint.Params {
	f := a.Config.Fingerprint
	return fingerprint.Params{
		SampleRate:           f.SampleRate,
		WindowSize:           f.WindowSize,
		OverlapRatio:         f.OverlapRatio,
		FanValue:             f.FanValue,
		AmpMin:               f.AmpMin,
		PeakNeighborhood:     f.PeakNeighborhood,
		MinHashTimeDelta:     f.MinHashTimeDelta,
		MaxHashTimeDelta:     f.MaxHashTimeDelta,
		FingerprintReduction: f.FingerprintReduction,
		ConnectivityMask:     f.ConnectivityMask,
	}
}

func (a *App) ingestOptions() ingest.Options {
	limit, limited := a.Config.FingerprintSeconds()
	if !limited {
		limit = 0
	}
	return ingest.Options{
		Params:         a.params(),
		LimitSeconds:   limit,
		NumWorkers:     a.Config.NumWorkers,
		BatchSize:      a.Config.BatchSize,
		KnownSHA1:      a.seen,
		KnownSHA1Mutex: &a.seenMu,
	}
}

// Ingest fingerprints and stores a single file under the given logical
// name (defaulting to the file's base name when empty).
func (a *App) Ingest(path, name string) (int64, error) {
	id, err := ingest.File(a.Store, path, name, a.ingestOptions())
	if err != nil {
		return 0, err
	}
	return id, nil
}

// IngestDirectory fingerprints every file under dir whose extension is
// in exts (nil means wav/mp3/flac) with a progress bar on stderr.
func (a *App) IngestDirectory(ctx context.Context, dir string, exts []string) ([]ingest.FileResult, error) {
	opts := a.ingestOptions()
	opts.ShowProgress = true
	return ingest.Directory(ctx, a.Store, dir, exts, opts)
}

// List returns every fingerprinted track.
func (a *App) List() ([]database.Track, error) {
	return a.Store.GetTracks()
}

// Delete removes the given tracks (and their hashes, by cascade).
func (a *App) Delete(ids ...int64) error {
	return a.Store.DeleteTracks(ids)
}

// Cleanup purges tracks left unfingerprinted by a crashed or
// timed-out ingest.
func (a *App) Cleanup() error {
	return a.Store.DeleteUnfingerprinted()
}

// Counts reports track/hash totals for operational visibility.
func (a *App) Counts() (database.Counts, error) {
	return a.Store.Counts()
}
