package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceFiresDueTimers(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var fired []string
	m.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "b") })
	m.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	m.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "c") })

	m.Advance(50 * time.Millisecond)

	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", fired)
	}

	m.Advance(50 * time.Millisecond)
	if len(fired) != 3 || fired[2] != "c" {
		t.Fatalf("fired = %v, want [a b c]", fired)
	}
}

func TestManualNowMovesWithAdvance(t *testing.T) {
	start := time.Unix(100, 0)
	m := NewManual(start)

	if !m.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", m.Now(), start)
	}
	m.Advance(time.Minute)
	if !m.Now().Equal(start.Add(time.Minute)) {
		t.Fatalf("Now = %v after advance", m.Now())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	fired := false
	timer := m.AfterFunc(10*time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("first Stop must report the timer as stopped")
	}
	if timer.Stop() {
		t.Fatal("second Stop must report false")
	}

	m.Advance(time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestManualStopAfterFire(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	timer := m.AfterFunc(10*time.Millisecond, func() {})
	m.Advance(time.Second)

	if timer.Stop() {
		t.Fatal("Stop after firing must report false")
	}
}

func TestManualTimerSchedulingAnotherTimer(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var fired []string
	m.AfterFunc(10*time.Millisecond, func() {
		fired = append(fired, "first")
		// Re-arming from inside a callback is how interval flushes work.
		m.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "second") })
	})

	m.Advance(25 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "first" {
		t.Fatalf("fired = %v, want [first]", fired)
	}

	// The re-armed timer is scheduled relative to the advanced clock.
	m.Advance(10 * time.Millisecond)
	if len(fired) != 2 || fired[1] != "second" {
		t.Fatalf("fired = %v, want [first second]", fired)
	}
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
