package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

func TestClient_PostsEnvelope(t *testing.T) {
	var got struct {
		GameID  string         `json:"gameId"`
		Message map[string]any `json:"message"`
	}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/notify" {
			t.Errorf("path = %s, want /notify", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]int{"sentCount": 2})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	state := &galaxy.State{Status: galaxy.StatusActive}
	c.GameUpdate(context.Background(), "g123", state)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if got.GameID != "g123" {
		t.Errorf("gameId = %s", got.GameID)
	}
	if got.Message["type"] != TypeGameUpdate {
		t.Errorf("message type = %v", got.Message["type"])
	}
	if got.Message["gameState"] == nil {
		t.Error("gameState missing from payload")
	}
}

func TestClient_PlayerJoinedPayload(t *testing.T) {
	var got struct {
		GameID  string         `json:"gameId"`
		Message map[string]any `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.PlayerJoined(context.Background(), "g1", galaxy.Player{SlotIndex: 2, Name: "alice"})

	if got.Message["type"] != TypePlayerJoined {
		t.Errorf("message type = %v", got.Message["type"])
	}
	player, ok := got.Message["player"].(map[string]any)
	if !ok {
		t.Fatalf("player payload = %#v", got.Message["player"])
	}
	if player["name"] != "alice" {
		t.Errorf("player name = %v", player["name"])
	}
}

func TestClient_SwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Neither a 5xx nor a dead endpoint may panic or block.
	c := NewClient(srv.URL)
	c.GameUpdate(context.Background(), "g1", &galaxy.State{})

	dead := NewClient("http://127.0.0.1:1")
	dead.GameStarted(context.Background(), "g1", &galaxy.State{})
}
