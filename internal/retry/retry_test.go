package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/echukwudebere/kachifo/models"
)

func transientErr() error {
	return &models.ProviderError{Provider: models.SourceNewsAPI, Kind: models.ProviderErrTimeout, Err: errors.New("deadline")}
}

func permanentErr() error {
	return &models.ProviderError{Provider: models.SourceNewsAPI, Kind: models.ProviderErrParse, Err: errors.New("bad json")}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	e := New(3, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return transientErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	e := New(3, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		return permanentErr()
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("parse failure must not retry, got %d calls", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	e := New(2, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		return transientErr()
	})
	if err == nil {
		t.Fatalf("expected final error after exhaustion")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError to propagate, got %v", err)
	}
}

func TestDoRetriesOnlyRetryableStatuses(t *testing.T) {
	e := New(2, time.Millisecond)

	calls := 0
	_ = e.Do(context.Background(), func() error {
		calls++
		return &models.ProviderError{Provider: models.SourceGoogle, Kind: models.ProviderErrStatus, Status: 403, Err: errors.New("forbidden")}
	})
	if calls != 1 {
		t.Fatalf("403 must not retry, got %d calls", calls)
	}

	calls = 0
	_ = e.Do(context.Background(), func() error {
		calls++
		return &models.ProviderError{Provider: models.SourceGoogle, Kind: models.ProviderErrStatus, Status: 503, Err: errors.New("unavailable")}
	})
	if calls != 3 {
		t.Fatalf("503 should retry to exhaustion, got %d calls", calls)
	}
}

func TestDoTreatsUntypedErrorsAsPermanent(t *testing.T) {
	e := New(3, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		return errors.New("something unclassified")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("untyped error must not retry, got %d calls", calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	e := New(5, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	calls := 0
	err := e.Do(ctx, func() error {
		calls++
		return transientErr()
	})
	if err == nil {
		t.Fatalf("expected error after context deadline")
	}
	if calls > 3 {
		t.Fatalf("context should have cut retries short, got %d calls", calls)
	}
}
