package game

import "time"

// DefaultTimerSeconds is the countdown started when a question is revealed.
const DefaultTimerSeconds = 60

// Timer is the wall-clock-anchored countdown. Remaining time is recomputed
// from the start anchor on every poll rather than decremented per tick, so
// tick jitter never accumulates into drift.
//
// There is deliberately no resume-from-pause: a paused timer can only be
// stopped or restarted from full duration.
type Timer struct {
	Running      bool       `json:"running"`
	StartedAt    *time.Time `json:"startTime"`
	DurationSec  int        `json:"durationSec"`
	RemainingSec int        `json:"remainingSec"`
}

func (t *Timer) reset() {
	t.Running = false
	t.StartedAt = nil
	t.DurationSec = DefaultTimerSeconds
	t.RemainingSec = DefaultTimerSeconds
}

func (t *Timer) start(now time.Time, durationSec int) {
	t.DurationSec = durationSec
	t.RemainingSec = durationSec
	t.StartedAt = &now
	t.Running = true
}

// pause freezes the remaining time at its current computed value. The start
// anchor is kept; only a fresh start begins counting again.
func (t *Timer) pause(now time.Time) bool {
	if !t.Running {
		return false
	}
	t.RemainingSec = t.remaining(now)
	t.Running = false
	return true
}

func (t *Timer) stop() {
	t.Running = false
	t.RemainingSec = 0
}

// addSeconds grows the duration without touching the anchor, so the extra
// time shows up on the next poll.
func (t *Timer) addSeconds(delta int) {
	t.DurationSec += delta
}

func (t *Timer) remaining(now time.Time) int {
	if t.StartedAt == nil {
		return 0
	}
	elapsed := int(now.Sub(*t.StartedAt) / time.Second)
	remain := t.DurationSec - elapsed
	if remain < 0 {
		return 0
	}
	return remain
}

// poll recomputes the remaining time and reports whether the broadcast
// value changed. Hitting zero stops the countdown.
func (t *Timer) poll(now time.Time) bool {
	if !t.Running {
		return false
	}
	changed := false
	if remain := t.remaining(now); remain != t.RemainingSec {
		t.RemainingSec = remain
		changed = true
	}
	if t.RemainingSec == 0 {
		t.Running = false
		changed = true
	}
	return changed
}
