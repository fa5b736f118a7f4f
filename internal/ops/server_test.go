package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
)

type failingPing struct {
	*store.MemoryStore
}

func (failingPing) Ping(context.Context) error { return errors.New("store down") }

func TestHealth(t *testing.T) {
	st := store.NewMemory(3)
	s := NewServer(":0", st, quota.NewMeter(st), "1.2.3")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q", body["status"])
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version field = %q", body["version"])
	}
	if body["uptime"] == "" {
		t.Error("uptime field is empty")
	}
}

func TestHealthDegraded(t *testing.T) {
	st := failingPing{store.NewMemory(3)}
	s := NewServer(":0", st, quota.NewMeter(st), "dev")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status field = %q, want degraded", body["status"])
	}
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(3)
	if err := st.EnsureService(ctx, "dadata", 1000, 100); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.AddUsage(ctx, "dadata", 40, store.Today(time.Now())); err != nil {
		t.Fatal(err)
	}
	s := NewServer(":0", st, quota.NewMeter(st), "dev")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Services []struct {
			Service   string `json:"service"`
			Limit     int    `json:"limit"`
			Used      int    `json:"used"`
			Remaining int    `json:"remaining"`
		} `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Services) != 1 {
		t.Fatalf("services = %d", len(body.Services))
	}
	got := body.Services[0]
	if got.Service != "dadata" || got.Limit != 1000 || got.Used != 40 || got.Remaining != 960 {
		t.Errorf("usage row = %+v", got)
	}
}
