package quotex

import (
	"fmt"
	"time"
)

// Timestamp returns the current unix time, used as the request index
// for history loads.
func Timestamp() int64 {
	return time.Now().Unix()
}

// NextTimeframe computes the open timestamp for a pending order: the
// next candle boundary of the given duration that is strictly in the
// future. offsetHours is the account's UTC offset, applied when an
// explicit wall-clock open time is requested.
//
// wanted, when non-empty, is an "HH:MM" wall-clock time in the
// account's timezone; the same time tomorrow is used when it already
// passed today.
func NextTimeframe(now int64, offsetHours int, duration int64, wanted string) (int64, error) {
	if duration <= 0 {
		duration = 60
	}

	if wanted != "" {
		t, err := time.Parse("15:04", wanted)
		if err != nil {
			return 0, fmt.Errorf("invalid open time %q: %w", wanted, err)
		}
		loc := time.FixedZone("account", offsetHours*3600)
		base := time.Unix(now, 0).In(loc)
		open := time.Date(base.Year(), base.Month(), base.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		if !open.After(base) {
			open = open.Add(24 * time.Hour)
		}
		return open.Unix(), nil
	}

	aligned := (now/duration + 1) * duration
	// Too close to the boundary to reach the broker in time
	if aligned-now < 5 {
		aligned += duration
	}
	return aligned, nil
}
