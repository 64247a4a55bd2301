// Package mic is the microphone-capture collaborator named in spec.md
// §2/§OUT OF SCOPE: landmarked's core never depends on it directly, but
// the CLI's `--recognize-mic` flag needs some capture source, and the
// teacher already wires one via PortAudio.
package mic

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const defaultFramesPerBuffer = 1024

// Recorder captures mono float64 samples from the default input device
// into a ring buffer, for hand-off to the recognition façade.
type Recorder struct {
	stream     *portaudio.Stream
	sampleRate int
	buffer     []float64
	maxSamples int
}

// NewRecorder opens PortAudio and prepares a recorder that retains up to
// maxSeconds of the most recent audio at sampleRate.
func NewRecorder(sampleRate int, maxSeconds int) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	return &Recorder{
		sampleRate: sampleRate,
		maxSamples: sampleRate * maxSeconds,
	}, nil
}

// Start begins recording from the system's default input device.
func (r *Recorder) Start() error {
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("no default input device: %w", err)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(r.sampleRate),
		FramesPerBuffer: defaultFramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, r.onAudio)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	r.stream = stream
	return r.stream.Start()
}

func (r *Recorder) onAudio(in []float32) {
	for _, s := range in {
		r.buffer = append(r.buffer, float64(s))
	}
	if len(r.buffer) > r.maxSamples {
		drop := len(r.buffer) - r.maxSamples
		r.buffer = append(r.buffer[:0], r.buffer[drop:]...)
	}
}

// Snapshot returns a copy of the most recently captured samples.
func (r *Recorder) Snapshot() []float64 {
	out := make([]float64, len(r.buffer))
	copy(out, r.buffer)
	return out
}

// Stop halts capture and releases the PortAudio stream.
func (r *Recorder) Stop() error {
	if r.stream == nil {
		return nil
	}
	if err := r.stream.Stop(); err != nil {
		return err
	}
	return r.stream.Close()
}

// Close releases PortAudio entirely; call once after Stop.
func (r *Recorder) Close() error {
	return portaudio.Terminate()
}
