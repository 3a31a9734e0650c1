package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes a 16-bit PCM file from per-channel sample frames.
func writeWAV(t *testing.T, path string, sampleRate, channels int, frames [][]int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, 0, len(frames)*channels)
	for _, frame := range frames {
		data = append(data, frame...)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to encode WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
}

func sineFrames(freq float64, n, sampleRate, channels int) [][]int {
	frames := make([][]int, n)
	for i := range frames {
		value := int(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		frame := make([]int, channels)
		for ch := range frame {
			frame[ch] = value
		}
		frames[i] = frame
	}
	return frames
}

func TestDecodeFileWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 44100, 1, sineFrames(440, 4410, 44100, 1))

	samples, sampleRate, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}
	if sampleRate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", sampleRate)
	}
	if len(samples) != 4410 {
		t.Fatalf("samples = %d, want 4410", len(samples))
	}
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %f, outside [-1, 1]", i, s)
		}
	}
	// First sample of a sine is zero; a quarter period in it peaks.
	if samples[0] != 0 {
		t.Fatalf("first sample = %f, want 0", samples[0])
	}
	peak := samples[44100/(440*4)]
	if math.Abs(peak-16000.0/32768.0) > 0.01 {
		t.Fatalf("peak sample = %f, want about %f", peak, 16000.0/32768.0)
	}
}

func TestDecodeFileStereoDownmix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stereo.wav")

	// Opposite-phase channels cancel to silence when averaged.
	frames := make([][]int, 1000)
	for i := range frames {
		value := int(12000 * math.Sin(2*math.Pi*440*float64(i)/44100))
		frames[i] = []int{value, -value}
	}
	writeWAV(t, path, 44100, 2, frames)

	samples, _, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}
	for i, s := range samples {
		if math.Abs(s) > 1e-9 {
			t.Fatalf("sample %d = %f, want opposite channels to cancel", i, s)
		}
	}
}

func TestDecodeFileUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.flac")
	if err := os.WriteFile(path, []byte("fLaC"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, _, err := DecodeFile(path)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Path != path {
		t.Fatalf("error path = %q, want %q", decodeErr.Path, path)
	}
}

func TestDecodeFileCorruptWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, _, err := DecodeFile(path)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeFile(filepath.Join(t.TempDir(), "nope.wav"))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file should unwrap to ErrNotExist, got %v", err)
	}
}
