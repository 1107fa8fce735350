package progress

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ErrUnknownDuration is returned when a Driver cannot be built because the
// media duration is unknown. Callers fall back to running the encoder with no
// progress indicator at all.
var ErrUnknownDuration = errors.New("progress: unknown media duration")

type driverState int

const (
	stateArmed driverState = iota
	stateRunning
	stateDone
)

// Driver turns raw progress events into a monotonic position bounded by the
// total media duration and animates a terminal progress bar.
type Driver struct {
	mu        sync.Mutex
	duration  float64
	position  float64
	state     driverState
	connected bool
	bar       *progressbar.ProgressBar
}

// NewDriver constructs a Driver for an encode of durationSeconds. A nil out
// suppresses rendering while keeping the numeric position queryable, which is
// what tests and non-interactive runs use.
func NewDriver(durationSeconds float64, description string, out io.Writer) (*Driver, error) {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return nil, ErrUnknownDuration
	}

	d := &Driver{duration: durationSeconds}
	if out != nil {
		d.bar = progressbar.NewOptions64(
			durationMillis(durationSeconds),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSpinnerType(14),
		)
	}
	return d, nil
}

// HandleEvent implements Handler. Recognized keys: the synthetic
// start=connected arming event, out_time_ms (integer microseconds, applied as
// an absolute position to avoid drift), and progress=end. Anything else,
// including malformed values, is ignored.
func (d *Driver) HandleEvent(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateDone {
		return
	}

	switch event.Key {
	case "start":
		if event.Value == "connected" && d.state == stateArmed {
			d.state = stateRunning
			d.connected = true
			d.renderLocked()
		}
	case "out_time_ms":
		if d.state != stateRunning {
			return
		}
		micros, err := strconv.ParseInt(strings.TrimSpace(event.Value), 10, 64)
		if err != nil || micros < 0 {
			return
		}
		d.position = math.Min(float64(micros)/1e6, d.duration)
		d.renderLocked()
	case "progress":
		if event.Value == "end" {
			d.completeLocked()
		}
	}
}

// Position reports the current position and total duration in seconds.
func (d *Driver) Position() (position, duration float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position, d.duration
}

// Connected reports whether the encoder ever reported in.
func (d *Driver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Complete forces the driver to its terminal state with position == duration.
// The coordinator calls this when the encoder exits successfully, covering
// producers that never send progress=end.
func (d *Driver) Complete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completeLocked()
}

// Close ends the visual lifecycle without touching the numeric position, so a
// failed encode keeps its last reported position instead of jumping to 100%.
// Further events are ignored.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateDone {
		return
	}
	d.state = stateDone
	if d.bar != nil {
		_ = d.bar.Exit()
	}
}

func (d *Driver) completeLocked() {
	if d.state == stateDone {
		return
	}
	d.position = d.duration
	d.state = stateDone
	if d.bar != nil {
		_ = d.bar.Set64(durationMillis(d.duration))
		_ = d.bar.Finish()
	}
}

func (d *Driver) renderLocked() {
	if d.bar == nil {
		return
	}
	_ = d.bar.Set64(durationMillis(d.position))
}

func durationMillis(seconds float64) int64 {
	millis := int64(math.Round(seconds * 1000))
	if millis < 1 {
		millis = 1
	}
	return millis
}
