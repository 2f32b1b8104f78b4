package horoscope

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maidchan/pkg/config"
)

func TestDailyDecodesEntriesForDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/free/2024/01/01" {
			t.Errorf("path = %q, want /free/2024/01/01", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"horoscope":{"2024/01/01":[{"rank":3,"sign":"牡羊座","total":4,"love":2,"money":5,"job":1,"color":"赤","item":"傘","content":"よい日"}]}}`))
	}))
	defer server.Close()

	client := New(config.CollaboratorConfig{BaseURL: server.URL + "/free/"}, nil)
	entries, err := client.Daily(context.Background(), "2024/01/01")
	if err != nil {
		t.Fatalf("Daily error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Rank != 3 || got.Sign != "牡羊座" || got.Money != 5 || got.Content != "よい日" {
		t.Fatalf("entry = %+v", got)
	}
}

func TestDailyFailuresAreDistinguishable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "server error", status: http.StatusInternalServerError, payload: `{}`},
		{name: "malformed json", status: http.StatusOK, payload: `{"horoscope":`},
		{name: "missing date", status: http.StatusOK, payload: `{"horoscope":{"1999/12/31":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			client := New(config.CollaboratorConfig{BaseURL: server.URL}, nil)
			if _, err := client.Daily(context.Background(), "2024/01/01"); !errors.Is(err, ErrUnavailable) {
				t.Fatalf("Daily error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestTodayUsesJST(t *testing.T) {
	now := time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)
	if got := Today(now); got != "2024/01/02" {
		t.Fatalf("Today = %q, want 2024/01/02", got)
	}
}
