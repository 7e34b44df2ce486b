package lcd

import "time"

// WaitFunc blocks the caller for d.
type WaitFunc func(d time.Duration)

// Spin busy-waits for d without yielding to the scheduler. The delays in
// front of each transfer are short enough that sleeping would overshoot them.
func Spin(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// Sleep waits with time.Sleep; fine on hosts where the bus is slow anyway.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

// NoWait returns at once. Used against simulated controllers.
func NoWait(time.Duration) {}
