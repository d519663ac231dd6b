package recovery

import (
	"testing"
	"time"
)

func TestBackoff_DelaySequence(t *testing.T) {
	b := Backoff{Base: 1 * time.Second, Cap: 8 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for i, w := range want {
		if got := b.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoff_ZeroAttempt(t *testing.T) {
	b := DefaultBackoff()
	if got := b.Delay(0); got != 0 {
		t.Errorf("Delay(0) = %v, want 0", got)
	}
	if got := b.Delay(-3); got != 0 {
		t.Errorf("Delay(-3) = %v, want 0", got)
	}
}

func TestBackoff_NoCap(t *testing.T) {
	b := Backoff{Base: 1 * time.Millisecond}
	if got := b.Delay(10); got != 512*time.Millisecond {
		t.Errorf("Delay(10) = %v, want 512ms", got)
	}
}
