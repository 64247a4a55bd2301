// Command landmarked is the CLI surface for the fingerprinting and
// recognition façade: ingest files or directories, recognize a file or a
// microphone snippet, and inspect/maintain the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/landmarked/landmarked/internal/config"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/database/mysql"
	"github.com/landmarked/landmarked/internal/database/postgres"
	"github.com/landmarked/landmarked/internal/fingerprint"
	"github.com/landmarked/landmarked/internal/fingerprint/mic"
	"github.com/landmarked/landmarked/internal/landmark"
	"github.com/landmarked/landmarked/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	fingerprintDir := flag.String("fingerprint", "", "directory of audio files to fingerprint and store")
	fingerprintExt := flag.String("ext", "", "comma-separated extensions to fingerprint (default wav,mp3,flac)")
	recognizeFile := flag.String("recognize-file", "", "path to an audio file to recognize")
	recognizeMicSeconds := flag.Int("recognize-mic", 0, "listen from the microphone for N seconds and recognize")
	listCmd := flag.Bool("list", false, "list all fingerprinted tracks")
	cleanupCmd := flag.Bool("cleanup", false, "delete tracks left unfingerprinted by a crashed ingest")
	deleteID := flag.Int64("delete", -1, "delete a track by id")
	flag.Parse()

	defer telemetry.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		telemetry.Error(err, zap.String("config", *configPath))
		os.Exit(1)
	}

	store, err := openStore(*cfg)
	if err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Setup(); err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}

	app, err := landmark.New(store, *cfg)
	if err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}

	switch {
	case *deleteID >= 0:
		runDelete(app, *deleteID)
	case *cleanupCmd:
		runCleanup(app)
	case *listCmd:
		runList(app)
	case *recognizeMicSeconds > 0:
		runRecognizeMic(app, *recognizeMicSeconds)
	case *recognizeFile != "":
		runRecognizeFile(app, *recognizeFile)
	case *fingerprintDir != "":
		runFingerprintDir(app, *fingerprintDir, splitExt(*fingerprintExt))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openStore(cfg config.Config) (database.Store, error) {
	switch cfg.DatabaseType {
	case "postgres", "postgresql":
		return postgres.Open(cfg.Database)
	default:
		return mysql.Open(cfg.Database)
	}
}

func splitExt(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func runDelete(app *landmark.App, id int64) {
	if err := app.Delete(id); err != nil {
		telemetry.Error(err, zap.Int64("track_id", id))
		os.Exit(1)
	}
	telemetry.Info("deleted track", zap.Int64("track_id", id))
}

func runCleanup(app *landmark.App) {
	if err := app.Cleanup(); err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	telemetry.Info("cleaned up unfingerprinted tracks")
}

func runList(app *landmark.App) {
	tracks, err := app.List()
	if err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	if len(tracks) == 0 {
		fmt.Println("no tracks found")
		return
	}
	for _, t := range tracks {
		fmt.Printf("%d\t%s\thashes=%d\tsha1=%s\n", t.ID, t.Name, t.TotalHashes, t.ContentSHA1)
	}
}

func runFingerprintDir(app *landmark.App, dir string, exts []string) {
	results, err := app.IngestDirectory(context.Background(), dir, exts)
	if err != nil {
		telemetry.Error(err, zap.String("dir", dir))
		os.Exit(1)
	}
	var ok, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		ok++
	}
	fmt.Printf("ingested %d files, %d skipped/failed\n", ok, failed)
}

func runRecognizeFile(app *landmark.App, path string) {
	resp, err := app.Recognize(path)
	if err != nil {
		telemetry.Error(err, zap.String("path", path))
		os.Exit(1)
	}
	printRecognitionResponse(resp)
}

func runRecognizeMic(app *landmark.App, seconds int) {
	recorder, err := mic.NewRecorder(44100, seconds)
	if err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	defer recorder.Close()

	if err := recorder.Start(); err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	time.Sleep(time.Duration(seconds) * time.Second)
	if err := recorder.Stop(); err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}

	samples := recorder.Snapshot()
	resp, err := app.RecognizeSamples(fingerprint.DecodedAudio{
		SampleRate:  44100,
		Channels:    [][]float64{samples},
		ContentSHA1: "",
	})
	if err != nil {
		telemetry.Error(err)
		os.Exit(1)
	}
	printRecognitionResponse(resp)
}

func printRecognitionResponse(resp landmark.RecognitionResponse) {
	if len(resp.Results) == 0 {
		fmt.Println("no match found")
		return
	}
	for i, r := range resp.Results {
		fmt.Printf("%d. %s (id=%d) offset=%ss confidence=%s\n",
			i+1, r.SongName, r.SongID,
			strconv.FormatFloat(r.OffsetSeconds, 'f', 5, 64),
			strconv.FormatFloat(r.InputConfidence, 'f', 3, 64))
	}
	fmt.Printf("total=%s fingerprint=%s query=%s align=%s\n",
		resp.TotalTime, resp.FingerprintTime, resp.QueryTime, resp.AlignTime)
}
