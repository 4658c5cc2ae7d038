package state

import (
	"time"
)

// Clock schedules delayed work
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled call that can be cancelled
type Timer interface {
	Stop() bool
}

// RealClock schedules with the runtime timer
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ShowToast displays message and clears it after delay. Each toast clears only
// itself, so a newer message is never cut short by an older timer.
func (s *Store) ShowToast(clock Clock, message string, delay time.Duration) Timer {
	if clock == nil {
		clock = RealClock{}
	}
	seq := s.Dispatch(FeedbackSucceeded{Message: message}).Toast.Seq
	return clock.AfterFunc(delay, func() {
		s.Dispatch(ToastExpired{Seq: seq})
	})
}
