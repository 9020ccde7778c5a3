package booking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestClientFetchesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/bookings/u1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"confirmed":true,"upcoming":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	confirmed, err := c.Confirmed(context.Background(), "u1")
	if err != nil || !confirmed {
		t.Fatalf("Confirmed: got=%v err=%v", confirmed, err)
	}
	upcoming, err := c.HasUpcoming(context.Background(), "u1")
	if err != nil || upcoming {
		t.Fatalf("HasUpcoming: got=%v err=%v", upcoming, err)
	}
}

func TestClientTreatsNotFoundAsNoBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	confirmed, err := c.Confirmed(context.Background(), "nobody")
	if err != nil || confirmed {
		t.Fatalf("Confirmed on 404: got=%v err=%v", confirmed, err)
	}
}

func TestClientMapsServerErrorToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Confirmed(context.Background(), "u1"); !errors.Is(err, model.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
