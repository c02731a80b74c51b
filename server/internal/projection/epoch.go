package projection

import (
	"errors"
	"fmt"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// DefaultWindowSeconds is the length of one epoch: 7 days.
const DefaultWindowSeconds = 7 * 24 * 60 * 60

// ErrIncompleteSnapshot is returned when a snapshot lacks a field required
// for a projection.
var ErrIncompleteSnapshot = errors.New("projection: incomplete snapshot")

// ErrEpochOutOfRange is returned for an epoch more than maxEpochOffset
// windows away from the anchor.
var ErrEpochOutOfRange = errors.New("projection: epoch out of range")

// maxEpochOffset bounds the distance from the anchor in windows. At the
// default window it is about 10,000 years.
const maxEpochOffset = 520_000

// Anchor is a known historical epoch boundary.
type Anchor struct {
	// Epoch is the epoch number that began at Start.
	Epoch int

	// Start is the instant Epoch began.
	Start time.Time

	// WindowSeconds is the fixed epoch length in seconds.
	WindowSeconds int
}

// DefaultAnchor is epoch 97, which began 2024-02-21T12:00:00Z.
func DefaultAnchor() Anchor {
	return Anchor{
		Epoch:         97,
		Start:         time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC),
		WindowSeconds: DefaultWindowSeconds,
	}
}

func (a Anchor) window() time.Duration {
	secs := a.WindowSeconds
	if secs <= 0 {
		secs = DefaultWindowSeconds
	}
	return time.Duration(secs) * time.Second
}

// EpochWindow is the wall-clock span of one epoch and how far now is into it.
type EpochWindow struct {
	Number int
	Start  time.Time
	End    time.Time

	// Progress is the elapsed fraction of the window. It drops below 0 for
	// future windows and exceeds 1 once the window has passed.
	Progress float64

	// Length is the full window duration (End - Start + 1s).
	Length time.Duration
}

// ComputeEpochWindow places currentEpoch on the clock relative to anchor:
//
//	start    = anchor.Start + (currentEpoch - anchor.Epoch) * window
//	end      = start + window - 1s
//	progress = (now - start) / window
//
// Epochs before the anchor are allowed and yield windows in the past. The
// arithmetic is done in whole seconds, and the distance from the anchor
// saturates at maxEpochOffset windows.
func ComputeEpochWindow(anchor Anchor, currentEpoch int, now time.Time) EpochWindow {
	window := anchor.window()
	secs := int64(window / time.Second)
	start := time.Unix(anchor.Start.Unix()+epochOffset(anchor, currentEpoch)*secs, int64(anchor.Start.Nanosecond())).
		In(anchor.Start.Location())

	elapsed := float64(now.Unix()-start.Unix()) + float64(now.Nanosecond()-start.Nanosecond())/1e9
	return EpochWindow{
		Number:   currentEpoch,
		Start:    start,
		End:      start.Add(window - time.Second),
		Progress: elapsed / float64(secs),
		Length:   window,
	}
}

// epochOffset is currentEpoch - anchor.Epoch clamped to maxEpochOffset.
func epochOffset(anchor Anchor, currentEpoch int) int64 {
	d := int64(currentEpoch) - int64(anchor.Epoch)
	switch {
	case d > maxEpochOffset:
		return maxEpochOffset
	case d < -maxEpochOffset:
		return -maxEpochOffset
	}
	return d
}

// EpochWindowFromSnapshot computes the window for the newest epoch reported
// in snap.ScoreStatistics.
func EpochWindowFromSnapshot(anchor Anchor, snap *types.NetworkSnapshot, now time.Time) (EpochWindow, error) {
	epoch, ok := snap.CurrentEpoch()
	if !ok {
		return EpochWindow{}, fmt.Errorf("%w: no score statistics", ErrIncompleteSnapshot)
	}
	if d := int64(epoch) - int64(anchor.Epoch); d > maxEpochOffset || d < -maxEpochOffset {
		return EpochWindow{}, fmt.Errorf("%w: %d", ErrEpochOutOfRange, epoch)
	}
	return ComputeEpochWindow(anchor, epoch, now), nil
}

// Remaining returns the time left until End, clamped at zero.
func (w EpochWindow) Remaining(now time.Time) time.Duration {
	if d := w.End.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Elapsed reports whether now is past the end of the window.
func (w EpochWindow) Elapsed(now time.Time) bool {
	return now.After(w.End)
}
