// Package metadata inspects uploaded audio before it is pushed to the media
// host, deriving the duration and tag fallbacks for fields the admin left
// blank. Probing is best-effort: it never fails an upload.
package metadata

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Result holds what could be derived from an uploaded audio file. Zero-valued
// fields mean the information was not available.
type Result struct {
	Duration int // in seconds
	Title    string
	Artist   string
}

// Probe inspects uploaded audio streams.
type Probe struct {
	logger *logrus.Logger
}

// NewProbe creates a new audio probe.
func NewProbe(logger *logrus.Logger) *Probe {
	return &Probe{logger: logger}
}

// Inspect reads tags and duration from the upload. The reader is rewound to
// the start afterwards so it can be handed straight to the media host.
func (p *Probe) Inspect(file io.ReadSeeker, filename string) Result {
	var result Result

	if meta, err := tag.ReadFrom(file); err == nil {
		result.Title = meta.Title()
		result.Artist = meta.Artist()
	} else {
		p.logger.WithField("filename", filename).WithError(err).Debug("No readable tags in upload")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		p.logger.WithField("filename", filename).WithError(err).Warn("Failed to rewind upload after tag read")
		return result
	}

	duration, err := p.duration(file, filename)
	if err != nil {
		p.logger.WithField("filename", filename).WithError(err).Debug("Failed to derive duration from upload")
	} else {
		result.Duration = duration
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		p.logger.WithField("filename", filename).WithError(err).Warn("Failed to rewind upload after probe")
	}
	return result
}

// duration derives the play time in seconds from the audio stream itself.
func (p *Probe) duration(file io.ReadSeeker, filename string) (int, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3":
		return p.durationMP3(file)
	case ".flac":
		return p.durationFLAC(file)
	case ".wav":
		return p.durationWAV(file)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

// MP3 duration using frame decoding; partial decodes use what was read.
func (p *Probe) durationMP3(r io.Reader) (int, error) {
	dec := mp3.NewDecoder(r)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return 0, fmt.Errorf("could not decode any mp3 frame: %w", err)
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return int(total.Seconds()), nil
}

// FLAC duration via STREAMINFO metadata block
func (p *Probe) durationFLAC(r io.Reader) (int, error) {
	stream, err := flac.Parse(r)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		secs := float64(si.NSamples) / float64(si.SampleRate)
		return int(secs + 0.5), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// WAV duration using go-audio/wav to read the header
func (p *Probe) durationWAV(r io.ReadSeeker) (int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	dur, err := dec.Duration()
	if err != nil {
		return 0, err
	}
	return int(dur.Seconds() + 0.5), nil
}
