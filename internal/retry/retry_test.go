package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
)

func fastConfig(retries int) Config {
	return Config{
		MaxRetries:     retries,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), nil, func(ctx context.Context) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_TerminalProviderErrorNotRetried(t *testing.T) {
	attempts := 0
	private := &apperr.ProviderError{Kind: apperr.ProviderPrivate, URL: "u", Err: errors.New("Private video")}

	err := Do(context.Background(), fastConfig(3), nil, func(ctx context.Context) error {
		attempts++
		return private
	})

	if !errors.Is(err, private) {
		t.Errorf("Do() error = %v, want %v", err, private)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_TransientRetriedUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(5), nil, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &apperr.ProviderError{Kind: apperr.ProviderNetwork, URL: "u", Err: errors.New("reset")}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("Do() made %d attempts, want 3", attempts)
	}
}

func TestDo_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	rateLimited := &apperr.ProviderError{Kind: apperr.ProviderRateLimited, URL: "u", Err: errors.New("429")}

	err := Do(context.Background(), fastConfig(2), nil, func(ctx context.Context) error {
		attempts++
		return rateLimited
	})

	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("Do() error = %T, want *RetryableError", err)
	}
	if re.Retries != 2 {
		t.Errorf("Retries = %d, want 2", re.Retries)
	}
	if !errors.Is(err, rateLimited) {
		t.Error("RetryableError should unwrap to the last error")
	}
	if attempts != 3 {
		t.Errorf("Do() made %d attempts, want 3", attempts)
	}
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 10, InitialBackoff: time.Second, MaxBackoff: time.Second, Multiplier: 1}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, nil, func(ctx context.Context) error {
			attempts++
			return &apperr.ProviderError{Kind: apperr.ProviderTimeout, URL: "u", Err: errors.New("slow")}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after cancel")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do() did not return after cancel")
	}
}

func TestDo_CustomClassifier(t *testing.T) {
	plain := errors.New("plain")
	attempts := 0
	err := Do(context.Background(), fastConfig(2), func(error) bool { return true }, func(ctx context.Context) error {
		attempts++
		return plain
	})
	if !errors.Is(err, plain) {
		t.Errorf("error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestJitter(t *testing.T) {
	if got := jitter(time.Second, 0); got != 0 {
		t.Errorf("jitter with zero fraction = %v", got)
	}
	for i := 0; i < 100; i++ {
		j := jitter(time.Second, 0.2)
		if j < -200*time.Millisecond || j > 200*time.Millisecond {
			t.Fatalf("jitter out of range: %v", j)
		}
	}
}
