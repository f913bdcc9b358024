package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("http://localhost:3000/api/")

		if c.baseURL != "http://localhost:3000/api" {
			t.Errorf("baseURL = %q, want trailing slash stripped", c.baseURL)
		}
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("http://localhost:3000/api", WithTimeout(3*time.Second))
		if c.httpClient.Timeout != 3*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 3*time.Second)
		}
	})

	t.Run("with http client option", func(t *testing.T) {
		hc := &http.Client{Timeout: time.Second}
		c := NewClient("http://localhost:3000/api", WithHTTPClient(hc))
		if c.httpClient != hc {
			t.Error("httpClient not replaced by WithHTTPClient")
		}
	})
}

func TestResolveShare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mindmaps/public/tok123" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/mindmaps/public/tok123")
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization = %q, want empty for share lookup", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"doc-1","publicAccessLevel":"edit","nodes":[{"id":"n1"}],"edges":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	doc, err := c.ResolveShare(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("ResolveShare failed: %v", err)
	}

	if doc.ID != "doc-1" {
		t.Errorf("ID = %q, want %q", doc.ID, "doc-1")
	}
	if !doc.CanEdit() {
		t.Error("CanEdit() = false for publicAccessLevel=edit, want true")
	}
	if string(doc.Nodes) != `[{"id":"n1"}]` {
		t.Errorf("Nodes = %s, want raw node array", doc.Nodes)
	}
}

func TestResolveShare_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ResolveShare(context.Background(), "expired")
	if err == nil {
		t.Fatal("ResolveShare expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if !apiErr.IsNotFound() {
		t.Errorf("IsNotFound() = false for status %d, want true", apiErr.StatusCode)
	}
}

func TestResolveDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mindmaps/doc-9" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/mindmaps/doc-9")
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer session-token" {
			t.Errorf("Authorization = %q, want bearer credential", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"doc-9","viewport":{"x":0,"y":0,"zoom":1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	doc, err := c.ResolveDocument(context.Background(), "doc-9", "session-token")
	if err != nil {
		t.Fatalf("ResolveDocument failed: %v", err)
	}
	if doc.ID != "doc-9" {
		t.Errorf("ID = %q, want %q", doc.ID, "doc-9")
	}
}

func TestResolveDocument_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ResolveDocument(context.Background(), "doc-9", "bad-token")
	if err == nil {
		t.Fatal("ResolveDocument expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.IsNotFound() {
		t.Error("IsNotFound() = true for 401, want false")
	}
}

func TestAppendHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/mindmaps/doc-1/history" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/mindmaps/doc-1/history")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var record HistoryRecord
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if record.Action != "node:add" {
			t.Errorf("Action = %q, want %q", record.Action, "node:add")
		}
		if record.Status != HistoryStatusActive {
			t.Errorf("Status = %q, want %q", record.Status, HistoryStatusActive)
		}
		if record.Metadata.SessionID != "c1" {
			t.Errorf("Metadata.SessionID = %q, want %q", record.Metadata.SessionID, "c1")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"h-77","action":"node:add"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	record := HistoryRecord{
		Action:  "node:add",
		Changes: json.RawMessage(`{"node":{"id":"n1"}}`),
		Metadata: Metadata{
			Address:   "203.0.113.7",
			UserAgent: "riverflow-web/1.4",
			SessionID: "c1",
		},
		Status: HistoryStatusActive,
	}

	entry, err := c.AppendHistory(context.Background(), "doc-1", "session-token", record)
	if err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if string(entry) != `{"id":"h-77","action":"node:add"}` {
		t.Errorf("entry = %s, want backend response body", entry)
	}
}

func TestAppendHistory_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.AppendHistory(context.Background(), "doc-1", "tok", HistoryRecord{Action: "node:add"})
	if err == nil {
		t.Fatal("AppendHistory expected error, got nil")
	}
}

func TestDocument_CanEdit(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{AccessLevelEdit, true},
		{AccessLevelView, false},
		{"", false},
	}

	for _, tt := range tests {
		doc := Document{PublicAccessLevel: tt.level}
		if got := doc.CanEdit(); got != tt.want {
			t.Errorf("CanEdit() with level %q = %v, want %v", tt.level, got, tt.want)
		}
	}
}
