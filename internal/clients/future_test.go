package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

func TestFutureAwaitAndThen(t *testing.T) {
	f := Async(context.Background(), "stub", func(context.Context) (*models.ProviderResponse, error) {
		return &models.ProviderResponse{RequestID: "req-9"}, nil
	})

	observed := make(chan string, 1)
	f.Then(func(resp *models.ProviderResponse, err error) {
		observed <- resp.RequestID
	})

	resp, err := f.Await(context.Background())
	if err != nil || resp.RequestID != "req-9" {
		t.Fatalf("unexpected result %+v %v", resp, err)
	}
	select {
	case id := <-observed:
		if id != "req-9" {
			t.Fatalf("unexpected observed id %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("then callback not invoked")
	}
}

func TestFutureAwaitStopsAtCallerDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := Async(context.Background(), "stub", func(context.Context) (*models.ProviderResponse, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)

	var perr *models.ProviderError
	if !errors.As(err, &perr) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected provider error wrapping deadline, got %v", err)
	}
}
