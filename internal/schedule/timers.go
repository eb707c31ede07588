package schedule

import "time"

// AfterFuncTimers runs one-shot actions on their own goroutine via time.AfterFunc.
type AfterFuncTimers struct{}

// After runs fn once d has elapsed. The returned cancel stops the timer; it
// cannot recall a run that already started.
func (AfterFuncTimers) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
