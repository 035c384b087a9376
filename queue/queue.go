// SPDX-License-Identifier: EPL-2.0

package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rackworks/outboard/audio"
)

// Status of a queued file within a batch.
type Status int

const (
	StatusPending Status = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
	StatusInvalidRate
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusInvalidRate:
		return "invalid-rate"
	default:
		return "unknown"
	}
}

// Entry is one source file in the batch or preview list.
type Entry struct {
	ID         string
	Path       string
	Status     Status
	SampleRate int
	Selected   bool
}

func NewEntry(path string) *Entry {
	return &Entry{
		ID:       uuid.NewString(),
		Path:     path,
		Status:   StatusPending,
		Selected: true,
	}
}

func (e *Entry) Name() string {
	return filepath.Base(e.Path)
}

// Probe opens the entry's file far enough to learn its sample rate, and
// marks the entry invalid-rate when it does not match sessionRate
// (±1 Hz, so fractional container rates still pass). Unreadable or
// undecodable files are marked failed immediately; a bad file must
// never abort the rest of the batch later.
func (e *Entry) Probe(reg *audio.Registry, sessionRate int) error {
	dec, ok := reg.Get(filepath.Ext(e.Path))
	if !ok {
		e.Status = StatusFailed
		return fmt.Errorf("%s: %w", e.Name(), audio.ErrUnknownFormat)
	}

	f, err := os.Open(e.Path)
	if err != nil {
		e.Status = StatusFailed
		return fmt.Errorf("probing %s: %w", e.Name(), err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		e.Status = StatusFailed
		return fmt.Errorf("probing %s: %w", e.Name(), err)
	}
	defer src.Close()

	e.SampleRate = src.SampleRate()
	if diff := e.SampleRate - sessionRate; diff > 1 || diff < -1 {
		e.Status = StatusInvalidRate
	}

	return nil
}

// OutputPath builds the destination file name: base name plus an
// optional postfix, always with a .wav extension regardless of the
// source container.
func (e *Entry) OutputPath(folder, postfix string) string {
	base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
	return filepath.Join(folder, base+postfix+".wav")
}

// Counts tallies completed and failed entries; invalid-rate counts as
// failed for batch reporting.
func Counts(entries []*Entry) (completed, failed int) {
	for _, e := range entries {
		switch e.Status {
		case StatusCompleted:
			completed++
		case StatusFailed, StatusInvalidRate:
			failed++
		}
	}
	return completed, failed
}
