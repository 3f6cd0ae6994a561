// Package window locates the target's main window.
package window

import "time"

// Await calls find up to attempts times, sleeping delay after each miss. It
// gives up early when stop reports true. The returned attempt is 1-based.
func Await(attempts int, delay time.Duration, stop func() bool, find func() (uintptr, bool)) (hwnd uintptr, attempt int, ok bool) {
	for attempt = 1; attempt <= attempts; attempt++ {
		if hwnd, ok = find(); ok {
			return hwnd, attempt, true
		}
		if attempt == attempts || (stop != nil && stop()) {
			break
		}
		time.Sleep(delay)
	}
	return 0, attempt, false
}
