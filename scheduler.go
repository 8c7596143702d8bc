package tindak

import "time"

// TimerScheduler is the default Scheduler, backed by the runtime timer heap.
// Each callback fires on its own goroutine.
type TimerScheduler struct{}

// NewTimerScheduler returns the default timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// After schedules fn to run once after d without blocking the caller.
func (*TimerScheduler) After(d time.Duration, fn func()) {
	if d <= 0 {
		go fn()
		return
	}
	time.AfterFunc(d, fn)
}
