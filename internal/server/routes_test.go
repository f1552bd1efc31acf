package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"crash/internal/game"
)

func newTestServer(t *testing.T) *FiberServer {
	t.Helper()

	store := game.NewMemStore()
	if _, err := store.CreateUser(context.Background(), "player", 1000); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	cfg := game.Config{
		WaitDuration:   2 * time.Second,
		TickInterval:   5 * time.Millisecond,
		CrashPause:     50 * time.Millisecond,
		GrowthRate:     5,
		PersistRetries: 1,
		RetryBackoff:   5 * time.Millisecond,
	}

	srv := newServer(cfg, store, nil, nil, nil, nil)
	srv.RegisterFiberRoutes()
	t.Cleanup(func() { srv.Shutdown() })
	return srv
}

func (s *FiberServer) testRequest(t *testing.T, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("could not marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		t.Fatalf("could not create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App.Test(req, 10000)
	if err != nil {
		t.Fatalf("could not perform request: %v", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("could not read response body: %v", err)
	}
	var result map[string]any
	if len(raw) > 0 {
		json.Unmarshal(raw, &result)
	}
	return resp, result
}

func waitForRoundStatus(t *testing.T, srv *FiberServer, status string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if srv.scheduler.State().Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("round never reached status %q", status)
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)

	resp, result := srv.testRequest(t, "GET", "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK; got %v", resp.Status)
	}

	gameHealth, ok := result["game"].(map[string]any)
	if !ok || gameHealth["status"] != "running" {
		t.Errorf("game health = %v, want running", result["game"])
	}
	db, ok := result["database"].(map[string]any)
	if !ok || db["status"] != "disabled" {
		t.Errorf("database health = %v, want disabled", result["database"])
	}
	cacheHealth, ok := result["cache"].(map[string]any)
	if !ok || cacheHealth["status"] != "disabled" {
		t.Errorf("cache health = %v, want disabled", result["cache"])
	}
}

func TestGameStateHandler(t *testing.T) {
	srv := newTestServer(t)

	resp, result := srv.testRequest(t, "GET", "/api/v1/game/state", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK; got %v", resp.Status)
	}

	switch result["status"] {
	case game.StatusWaiting, game.StatusInProgress, game.StatusCrashed:
	default:
		t.Errorf("state status = %v, want a round status", result["status"])
	}
}

func TestPlaceBetHandler(t *testing.T) {
	srv := newTestServer(t)

	t.Run("invalid body", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "POST", "/api/v1/game/bet", "not an object")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "POST", "/api/v1/game/bet", map[string]any{"amount": 100})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})

	t.Run("accepted during waiting", func(t *testing.T) {
		waitForRoundStatus(t, srv, game.StatusWaiting)
		resp, result := srv.testRequest(t, "POST", "/api/v1/game/bet",
			map[string]any{"userId": 1, "amount": 100})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200; got %v (%v)", resp.Status, result)
		}
		if result["success"] != true {
			t.Errorf("result = %v, want success", result)
		}
		if result["balance"] != float64(900) {
			t.Errorf("balance = %v, want 900", result["balance"])
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "POST", "/api/v1/game/bet",
			map[string]any{"userId": 42, "amount": 100})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})
}

func TestCashoutHandler(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "POST", "/api/v1/game/cashout", map[string]any{"userId": 1})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})

	t.Run("unknown bet", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "POST", "/api/v1/game/cashout",
			map[string]any{"userId": 1, "betId": 999})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})
}

func TestUserBetsHandler(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.testRequest(t, "GET", "/api/v1/user/abc/bets", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad user id; got %v", resp.Status)
	}

	resp, _ = srv.testRequest(t, "GET", "/api/v1/user/1/bets", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200; got %v", resp.Status)
	}
}

func TestSettingsHandlers(t *testing.T) {
	srv := newTestServer(t)

	resp, result := srv.testRequest(t, "GET", "/api/v1/admin/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200; got %v", resp.Status)
	}
	if result["minBet"] != float64(10) || result["maxBet"] != float64(10000) {
		t.Errorf("settings = %v, want defaults", result)
	}

	t.Run("partial update", func(t *testing.T) {
		resp, result := srv.testRequest(t, "PATCH", "/api/v1/admin/settings",
			map[string]any{"minBet": 20})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200; got %v (%v)", resp.Status, result)
		}
		if result["minBet"] != float64(20) {
			t.Errorf("minBet = %v, want 20", result["minBet"])
		}
		if result["maxBet"] != float64(10000) {
			t.Errorf("maxBet = %v, want untouched 10000", result["maxBet"])
		}
	})

	t.Run("invalid house edge", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "PATCH", "/api/v1/admin/settings",
			map[string]any{"houseEdge": 150})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})

	t.Run("inverted limits", func(t *testing.T) {
		resp, _ := srv.testRequest(t, "PATCH", "/api/v1/admin/settings",
			map[string]any{"minBet": 500, "maxBet": 100})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400; got %v", resp.Status)
		}
	})
}

func TestOverrideHandlers(t *testing.T) {
	srv := newTestServer(t)

	resp, result := srv.testRequest(t, "GET", "/api/v1/admin/override", nil)
	if resp.StatusCode != http.StatusOK || result["armed"] != false {
		t.Fatalf("initial override = %v (%v)", result, resp.Status)
	}

	resp, result = srv.testRequest(t, "POST", "/api/v1/admin/override",
		map[string]any{"crashPoint": 2.5})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200; got %v (%v)", resp.Status, result)
	}

	_, result = srv.testRequest(t, "GET", "/api/v1/admin/override", nil)
	if result["armed"] != true || result["crashPoint"] != float64(2.5) {
		t.Errorf("override status = %v, want armed at 2.5", result)
	}

	resp, _ = srv.testRequest(t, "DELETE", "/api/v1/admin/override", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200; got %v", resp.Status)
	}
	_, result = srv.testRequest(t, "GET", "/api/v1/admin/override", nil)
	if result["armed"] != false {
		t.Errorf("override still armed after delete: %v", result)
	}

	resp, _ = srv.testRequest(t, "POST", "/api/v1/admin/override",
		map[string]any{"crashPoint": 0.5})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for sub-1.00 crash point; got %v", resp.Status)
	}
}

func TestGameHistoryHandler(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/v1/game/history",
		fmt.Sprintf("/api/v1/game/history?limit=%d", 5),
		"/api/v1/game/history?limit=0",
	} {
		resp, _ := srv.testRequest(t, "GET", target, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200; got %v", target, resp.Status)
		}
	}
}
