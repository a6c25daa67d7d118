package backend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfig_Backoff(t *testing.T) {
	tests := []struct {
		name string
		base time.Duration
		max  time.Duration
		want []time.Duration
	}{
		{
			name: "doubles from one second",
			base: time.Second,
			want: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
		},
		{
			name: "capped",
			base: time.Second,
			max:  3 * time.Second,
			want: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second},
		},
		{
			name: "zero base never waits",
			want: []time.Duration{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InitialDelay = tt.base
			cfg.MaxDelay = tt.max

			b := cfg.Backoff()
			b.Reset()
			for i, want := range tt.want {
				if got := b.NextBackOff(); got != want {
					t.Errorf("wait %d = %s, want %s", i+1, got, want)
				}
			}
		})
	}
}

func TestConfig_BackoffIsFreshPerCall(t *testing.T) {
	cfg := DefaultConfig()
	first := cfg.Backoff()
	first.Reset()
	first.NextBackOff()
	first.NextBackOff()

	second := cfg.Backoff()
	second.Reset()
	if got := second.NextBackOff(); got != time.Second {
		t.Errorf("a new policy starts at %s, want 1s", got)
	}
}

func TestConfig_BackoffUncappedDoesNotStop(t *testing.T) {
	b := DefaultConfig().Backoff()
	b.Reset()
	for i := 0; i < 80; i++ {
		if got := b.NextBackOff(); got <= 0 {
			t.Fatalf("wait %d = %s, want a positive duration", i+1, got)
		}
	}
}

func TestAttemptBackOff(t *testing.T) {
	b := &attemptBackOff{schedule: BackoffFunc(func(attempt int) time.Duration {
		return time.Duration(attempt) * time.Millisecond
	})}

	if got := b.NextBackOff(); got != time.Millisecond {
		t.Errorf("first wait = %s, want 1ms", got)
	}
	if got := b.NextBackOff(); got != 2*time.Millisecond {
		t.Errorf("second wait = %s, want 2ms", got)
	}
	b.Reset()
	if got := b.NextBackOff(); got != time.Millisecond {
		t.Errorf("wait after Reset = %s, want 1ms", got)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() on cancelled context error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Sleep() blocked on a cancelled context")
	}
}

func TestSleepTimer(t *testing.T) {
	timer := newSleepTimer(context.Background(), Sleep)
	timer.Start(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(5 * time.Second):
		t.Fatal("sleep timer never fired")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := newSleepTimer(ctx, Sleep)
	cancelled.Start(time.Hour)
	select {
	case <-cancelled.C():
		t.Error("sleep timer fired on a cancelled context")
	case <-time.After(50 * time.Millisecond):
	}
}
