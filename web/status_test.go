package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chipsock/chipsock/server"
)

func TestStatusServer_Health(t *testing.T) {
	s := NewStatusServer(":0", server.NewSessionRegistry())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestStatusServer_Sessions(t *testing.T) {
	registry := server.NewSessionRegistry()

	sess := server.NewSession("ws-test-1", "127.0.0.1:5000")
	sess.Store().Set("0x12344321", 1, 16385, int64(50))
	sess.CountRequest()
	registry.Store(sess)

	s := NewStatusServer(":0", registry)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Count    int                  `json:"count"`
		Sessions []server.SessionInfo `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}

	if body.Count != 1 || len(body.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %+v", body)
	}

	info := body.Sessions[0]
	if info.Id != "ws-test-1" {
		t.Errorf("Expected session id ws-test-1, got %s", info.Id)
	}
	if info.RemoteAddr != "127.0.0.1:5000" {
		t.Errorf("Expected remote addr 127.0.0.1:5000, got %s", info.RemoteAddr)
	}
	if info.Requests != 1 {
		t.Errorf("Expected 1 request, got %d", info.Requests)
	}
	if info.Attributes != 1 {
		t.Errorf("Expected 1 stored attribute, got %d", info.Attributes)
	}
}

func TestStatusServer_SessionsEmpty(t *testing.T) {
	s := NewStatusServer(":0", server.NewSessionRegistry())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body struct {
		Count    int   `json:"count"`
		Sessions []any `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if body.Count != 0 {
		t.Errorf("Expected 0 sessions, got %d", body.Count)
	}
	if body.Sessions == nil {
		t.Error("Expected empty array, not null")
	}
}
