// Package ingest fingerprints audio files and writes the results into a
// database.Store. A fixed-size worker pool runs the CPU-heavy decode and
// hashing stages concurrently; a single coordinator goroutine owns every
// store write, per spec.md §5's concurrency model.
package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/landmarkerr"
	"github.com/landmarked/landmarked/internal/telemetry"
)

// FileResult is one file's outcome: either a usable fingerprint.Result or
// an error, paired with the path and logical name it was ingested under.
type FileResult struct {
	Path string
	Name string
	Res  fingerprint.Result
	Err  error
}

// Options configures a single ingestion run.
type Options struct {
	Params         fingerprint.Params
	LimitSeconds   float64
	NumWorkers     int // 0 means runtime.NumCPU()
	BatchSize      int // 0 means database.DefaultBatchSize
	ShowProgress   bool
	KnownSHA1      map[string]bool // content hashes already in the store; mutated as files are ingested
	KnownSHA1Mutex *sync.Mutex     // guards KnownSHA1 across concurrent ingest calls sharing it
}

func (o Options) workers() int {
	if o.NumWorkers > 0 {
		return o.NumWorkers
	}
	return runtime.NumCPU()
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return database.DefaultBatchSize
}

// job is one unit of work handed to the worker pool.
type job struct {
	path string
	name string
}

// File fingerprints a single file and stores it, returning the inserted
// track's ID. A duplicate content hash (already present in opts.KnownSHA1
// or the store) returns landmarkerr.ErrDuplicateInput and is not an
// ingestion failure.
func File(store database.Store, path, name string, opts Options) (int64, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	res, err := fingerprint.Process(path, opts.Params, opts.LimitSeconds)
	if err != nil {
		return 0, landmarkerr.NewDecodeError(path, err)
	}

	return commit(store, name, res, opts)
}

func commit(store database.Store, name string, res fingerprint.Result, opts Options) (int64, error) {
	if opts.KnownSHA1Mutex != nil {
		opts.KnownSHA1Mutex.Lock()
	}
	known := opts.KnownSHA1 != nil && opts.KnownSHA1[res.ContentSHA1]
	if opts.KnownSHA1Mutex != nil {
		opts.KnownSHA1Mutex.Unlock()
	}
	if known {
		return 0, landmarkerr.ErrDuplicateInput
	}

	exists, err := store.ContentExists(res.ContentSHA1)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, landmarkerr.ErrDuplicateInput
	}

	trackID, err := store.InsertTrack(name, res.ContentSHA1, 0)
	if err != nil {
		return 0, err
	}

	hashes := make([]database.HashOffset, len(res.Hashes))
	for i, fp := range res.Hashes {
		hashes[i] = database.HashOffset{Hash: fp.Hash, Offset: fp.Offset}
	}
	if err := store.InsertHashes(trackID, hashes, opts.batchSize()); err != nil {
		return 0, err
	}
	if err := store.SetTrackFingerprinted(trackID, int64(len(hashes))); err != nil {
		return 0, err
	}

	if opts.KnownSHA1Mutex != nil {
		opts.KnownSHA1Mutex.Lock()
	}
	if opts.KnownSHA1 != nil {
		opts.KnownSHA1[res.ContentSHA1] = true
	}
	if opts.KnownSHA1Mutex != nil {
		opts.KnownSHA1Mutex.Unlock()
	}

	return trackID, nil
}

// Directory walks dir for files whose extension is in exts (lower-case,
// without the leading dot; nil/empty means wav, mp3, and flac), decodes
// and hashes them with a worker pool of opts.workers() goroutines, and
// writes each successful result through the single coordinator goroutine
// that owns store. Per-file worker faults are logged and skipped rather
// than aborting the run, per spec.md §5; the run stops with an error only
// when walking dir fails (a landmarkerr.WorkerFault) or a store write
// reports a landmarkerr.FatalStoreFault.
func Directory(ctx context.Context, store database.Store, dir string, exts []string, opts Options) ([]FileResult, error) {
	allowed := extensionSet(exts)

	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if allowed[ext] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, landmarkerr.NewWorkerFault(dir, err)
	}

	jobs := make(chan job)
	fingerprinted := make(chan FileResult)

	workerCount := opts.workers()
	if workerCount > len(paths) {
		workerCount = len(paths)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res, err := fingerprint.Process(j.path, opts.Params, opts.LimitSeconds)
				fingerprinted <- FileResult{Path: j.path, Name: j.name, Res: res, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- job{path: p, name: filepath.Base(p)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(fingerprinted)
	}()

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(paths)), "fingerprinting")
	}

	results := make([]FileResult, 0, len(paths))
	for fr := range fingerprinted {
		if bar != nil {
			_ = bar.Add(1)
		}
		if fr.Err != nil {
			telemetry.Error(fr.Err, zap.String("path", fr.Path))
			results = append(results, fr)
			continue
		}

		id, err := commit(store, fr.Name, fr.Res, opts)
		if err != nil {
			if errors.Is(err, landmarkerr.ErrDuplicateInput) {
				telemetry.Info("skipping duplicate content", zap.String("path", fr.Path))
				fr.Err = err
				results = append(results, fr)
				continue
			}
			var fatal *landmarkerr.FatalStoreFault
			if errors.As(err, &fatal) {
				return results, err
			}
			telemetry.Error(err, zap.String("path", fr.Path))
			fr.Err = err
			results = append(results, fr)
			continue
		}

		telemetry.Info("ingested track", zap.String("path", fr.Path), zap.Int64("track_id", id))
		results = append(results, fr)
	}

	return results, nil
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = []string{"wav", "mp3", "flac"}
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return set
}
