package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-dashboard/internal/models"
	"live-dashboard/internal/scheduler"
)

func TestNewDefaults(t *testing.T) {
	s, err := New(Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Fatal("session id must be set")
	}
	if s.Weather.Len() != 0 {
		t.Fatal("history starts empty")
	}
	if s.CryptoRefresh.Enabled() || s.WeatherRefresh.Enabled() {
		t.Fatal("auto-refresh starts off")
	}
	if s.CryptoRefresh.Interval() != scheduler.DefaultInterval {
		t.Fatalf("expected default interval, got %s", s.CryptoRefresh.Interval())
	}
	if s.Refresh("crypto") != s.CryptoRefresh || s.Refresh("weather") != s.WeatherRefresh || s.Refresh("bio") != nil {
		t.Fatal("unexpected refresh lookup")
	}
}

func TestNewRejectsOutOfRangeInterval(t *testing.T) {
	_, err := New(Options{Weather: RefreshOptions{Interval: 5 * time.Second}}, zerolog.Nop())
	if err == nil {
		t.Fatal("5s interval should be rejected")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, _ := New(Options{}, zerolog.Nop())
	b, _ := New(Options{}, zerolog.Nop())
	a.Weather.Append(models.WeatherObservation{Timestamp: time.Now()})
	if b.Weather.Len() != 0 {
		t.Fatal("history must not be shared between sessions")
	}
	if a.ID == b.ID {
		t.Fatal("session ids must differ")
	}
}

func TestCloseDiscardsState(t *testing.T) {
	s, err := New(Options{Crypto: RefreshOptions{Enabled: true, Interval: 20 * time.Second}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.Weather.Append(models.WeatherObservation{Timestamp: time.Now()})

	s.Close()
	s.Close()

	if s.Weather.Len() != 0 {
		t.Fatal("close must discard history")
	}
	if s.CryptoRefresh.Enabled() {
		t.Fatal("close must switch auto-refresh off")
	}
}
