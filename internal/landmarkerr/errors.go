// Package landmarkerr implements the error taxonomy of the recognition
// and ingestion pipelines: configuration, decode, duplicate-input,
// worker-fault, store-transient, no-match and fatal-store errors.
package landmarkerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for conditions callers commonly branch on.
var (
	// ErrDuplicateInput means the content-sha1 of an ingest candidate
	// already exists in the store; the ingest call is a silent no-op.
	ErrDuplicateInput = errors.New("duplicate input: content already fingerprinted")

	// ErrNoMatch means a recognition query produced no hashes, or no
	// track cleared the alignment floor. Not treated as a failure.
	ErrNoMatch = errors.New("no match found")
)

// ConfigError wraps a configuration load/parse failure. Fatal: the
// caller should abort before doing any work.
type ConfigError struct {
	Path  string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error loading %s: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError wraps cause with the path that failed to load, adding
// a stack trace via pkg/errors for operators inspecting logs.
func NewConfigError(path string, cause error) error {
	return &ConfigError{Path: path, Cause: errors.WithStack(cause)}
}

// DecodeError means the decoder adapter rejected an input file. The
// ingestion coordinator logs and skips; it is never fatal to a run.
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error for %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func NewDecodeError(path string, cause error) error {
	return &DecodeError{Path: path, Cause: errors.WithStack(cause)}
}

// WorkerFault wraps an error met by the ingestion pipeline outside the
// decode of a single file, with a stack via pkg/errors. ingest.Directory
// returns it, ending the run, when walking its input directory fails.
type WorkerFault struct {
	Path  string
	Cause error
}

func (e *WorkerFault) Error() string {
	return fmt.Sprintf("worker fault processing %s: %v", e.Path, e.Cause)
}

func (e *WorkerFault) Unwrap() error { return e.Cause }

func NewWorkerFault(path string, cause error) error {
	return &WorkerFault{Path: path, Cause: errors.WithStack(cause)}
}

// StoreTransientFault means a batch write failed in a way the
// coordinator may retry (e.g. a dropped connection mid-transaction).
type StoreTransientFault struct {
	Op    string
	Cause error
}

func (e *StoreTransientFault) Error() string {
	return fmt.Sprintf("transient store fault during %s: %v", e.Op, e.Cause)
}

func (e *StoreTransientFault) Unwrap() error { return e.Cause }

func NewStoreTransientFault(op string, cause error) error {
	return &StoreTransientFault{Op: op, Cause: errors.WithStack(cause)}
}

// FatalStoreFault means the store connection is lost and unrecoverable;
// it must propagate to the caller rather than being swallowed.
type FatalStoreFault struct {
	Op    string
	Cause error
}

func (e *FatalStoreFault) Error() string {
	return fmt.Sprintf("fatal store fault during %s: %v", e.Op, e.Cause)
}

func (e *FatalStoreFault) Unwrap() error { return e.Cause }

func NewFatalStoreFault(op string, cause error) error {
	return &FatalStoreFault{Op: op, Cause: errors.WithStack(cause)}
}

// Stage identifies which phase of recognition produced a RecognitionError.
type Stage string

const (
	StageDecode      Stage = "decode"
	StageFingerprint Stage = "fingerprint"
	StageQuery       Stage = "query"
	StageAlign       Stage = "align"
)

// RecognitionError is what Recognize returns when a stage fails; it
// carries which stage failed so callers can distinguish a bad input file
// from a store outage without string-matching the error text.
type RecognitionError struct {
	Stage Stage
	Cause error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed at %s stage: %v", e.Stage, e.Cause)
}

func (e *RecognitionError) Unwrap() error { return e.Cause }

func NewRecognitionError(stage Stage, cause error) error {
	return &RecognitionError{Stage: stage, Cause: errors.WithStack(cause)}
}
