// Package audio decodes recording files into the mono PCM samples the
// fingerprinting engine consumes. The engine itself never parses audio
// files; it only sees samples and a sample rate.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// DecodeError wraps any failure to obtain samples from a source file, be it
// corrupt data, an unsupported format, or an I/O error. It is surfaced per
// file so a batch can keep going past one bad recording.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeFile reads a WAV or MP3 file and returns mono samples normalized to
// [-1, 1] plus the sample rate. Stereo input is downmixed by averaging.
func DecodeFile(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	var samples []float64
	var sampleRate int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, sampleRate, err = decodeWAV(f)
	case ".mp3":
		samples, sampleRate, err = decodeMP3(f)
	default:
		err = fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, 0, &DecodeError{Path: path, Err: err}
	}
	return samples, sampleRate, nil
}

func decodeWAV(r io.ReadSeeker) ([]float64, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, 0, errors.New("missing format information")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) * scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples, buf.Format.SampleRate, nil
}

// decodeMP3 reads the go-mp3 output stream, which is always 16-bit little
// endian stereo.
func decodeMP3(r io.Reader) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open MP3 stream: %w", err)
	}

	const scale = 1.0 / 32768.0
	var samples []float64
	buf := make([]byte, 8192)
	for {
		n, err := decoder.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			left := float64(int16(uint16(buf[i])|uint16(buf[i+1])<<8)) * scale
			right := float64(int16(uint16(buf[i+2])|uint16(buf[i+3])<<8)) * scale
			samples = append(samples, (left+right)*0.5)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read MP3 frames: %w", err)
		}
	}

	return samples, decoder.SampleRate(), nil
}
