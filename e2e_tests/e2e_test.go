//go:build e2e

// Run against a service started with the DEV seed data:
//
//	go test -tags e2e ./e2e_tests/...
package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

const (
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second
)

var (
	baseURL    = envOr("E2E_BASE_URL", "http://localhost:8080")
	httpClient = &http.Client{Timeout: timeout}
)

type poolPayload struct {
	PlayerID uint64         `json:"playerId"`
	Crystals map[string]int `json:"crystals"`
	Total    int            `json:"total"`
	Display  string         `json:"display"`
}

func TestE2E_GrantAndPayFlow(t *testing.T) {
	waitUntilReady(t)

	// seed data leaves player 1 empty
	emptyPool(t, 1)

	t.Run("player1_starts_empty", func(t *testing.T) {
		got := getPool(t, 1)
		if got.Total != 0 || got.Display != "[]" {
			t.Fatalf("initial pool: want empty, got %+v", got)
		}
	})

	t.Run("player1_grant_adds_crystals", func(t *testing.T) {
		code, body := postGrant(t, 1, "game", "fire", 1, uuid.NewString())
		if code != http.StatusOK {
			t.Fatalf("grant fire: want 200, got %d (%s)", code, body)
		}

		code, body = postGrant(t, 1, "server", "water", 2, uuid.NewString())
		if code != http.StatusOK {
			t.Fatalf("grant water: want 200, got %d (%s)", code, body)
		}

		got := getPool(t, 1)
		if got.Display != "[FIRE=1, WATER=2]" {
			t.Fatalf("after grants: want [FIRE=1, WATER=2], got %s", got.Display)
		}
	})

	t.Run("player1_duplicate_grant_conflict", func(t *testing.T) {
		id := uuid.NewString()

		code, body := postGrant(t, 1, "game", "ice", 1, id)
		if code != http.StatusOK {
			t.Fatalf("first send: want 200, got %d (%s)", code, body)
		}

		code, body = postGrant(t, 1, "game", "ice", 1, id)
		if code != http.StatusConflict {
			t.Fatalf("duplicate send: want 409, got %d (%s)", code, body)
		}

		got := getPool(t, 1)
		if got.Crystals["ice"] != 1 {
			t.Fatalf("ice granted more than once: %s", got.Display)
		}
	})

	t.Run("player1_quote_then_pay", func(t *testing.T) {
		code, body := getQuote(t, 1, "PayCrystal%3C2%3E")
		if code != http.StatusOK {
			t.Fatalf("quote: want 200, got %d (%s)", code, body)
		}

		code, body = postPayment(t, 1, map[string]any{"cost": "PayCrystal<2>", "paymentId": uuid.NewString()})
		if code != http.StatusOK {
			t.Fatalf("pay: want 200, got %d (%s)", code, body)
		}

		// fire is consumed first, then ice by enumeration order
		got := getPool(t, 1)
		if got.Display != "[WATER=2]" {
			t.Fatalf("after pay: want [WATER=2], got %s", got.Display)
		}
	})

	t.Run("player1_insufficient_crystals", func(t *testing.T) {
		code, body := postPayment(t, 1, map[string]any{"cost": "PayCrystal<3>", "paymentId": uuid.NewString()})
		if code != http.StatusConflict {
			t.Fatalf("insufficient: want 409, got %d (%s)", code, body)
		}

		got := getPool(t, 1)
		if got.Display != "[WATER=2]" {
			t.Fatalf("failed payment changed pool: %s", got.Display)
		}
	})

	t.Run("player1_empty", func(t *testing.T) {
		emptyPool(t, 1)

		if got := getPool(t, 1); got.Total != 0 {
			t.Fatalf("after empty: want 0, got %d", got.Total)
		}
	})
}

func TestE2E_Validation(t *testing.T) {
	waitUntilReady(t)

	t.Run("unknown_player", func(t *testing.T) {
		code, _ := postPayment(t, 999, map[string]any{"cost": "PayCrystal<1>", "paymentId": uuid.NewString()})
		if code != http.StatusNotFound {
			t.Fatalf("unknown player: want 404, got %d", code)
		}
	})

	t.Run("invalid_cost", func(t *testing.T) {
		code, _ := postPayment(t, 3, map[string]any{"cost": "PayCrystal<two>", "paymentId": uuid.NewString()})
		if code != http.StatusBadRequest {
			t.Fatalf("invalid cost: want 400, got %d", code)
		}
	})

	t.Run("invalid_element", func(t *testing.T) {
		code, _ := postGrant(t, 3, "game", "mud", 1, uuid.NewString())
		if code != http.StatusBadRequest {
			t.Fatalf("invalid element: want 400, got %d", code)
		}
	})

	t.Run("invalid_source_type", func(t *testing.T) {
		code, _ := postGrant(t, 3, "bad-source", "fire", 1, uuid.NewString())
		if code != http.StatusBadRequest {
			t.Fatalf("bad source-type: want 400, got %d", code)
		}
	})
}

/* -------------------- helpers -------------------- */

func getPool(t *testing.T, playerID uint64) poolPayload {
	t.Helper()

	u := fmt.Sprintf("%s/player/%d/crystals", baseURL, playerID)

	code, body := do(t, http.MethodGet, u, nil, nil)
	if code != http.StatusOK {
		t.Fatalf("GET %s: want 200, got %d (%s)", u, code, body)
	}

	var payload poolPayload

	err := json.Unmarshal([]byte(body), &payload)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}

	if payload.PlayerID != playerID {
		t.Fatalf("playerId mismatch: want %d, got %d", playerID, payload.PlayerID)
	}

	return payload
}

func postGrant(t *testing.T, playerID uint64, source, element string, amount int, grantID string) (int, string) {
	t.Helper()

	u := fmt.Sprintf("%s/player/%d/crystals", baseURL, playerID)

	return do(t, http.MethodPost, u, map[string]any{
		"element": element,
		"amount":  amount,
		"grantId": grantID,
	}, map[string]string{"Source-Type": source})
}

func postPayment(t *testing.T, playerID uint64, body map[string]any) (int, string) {
	t.Helper()

	return do(t, http.MethodPost, fmt.Sprintf("%s/player/%d/payment", baseURL, playerID), body, nil)
}

func getQuote(t *testing.T, playerID uint64, escapedCost string) (int, string) {
	t.Helper()

	return do(t, http.MethodGet, fmt.Sprintf("%s/player/%d/quote?cost=%s", baseURL, playerID, escapedCost), nil, nil)
}

func emptyPool(t *testing.T, playerID uint64) {
	t.Helper()

	u := fmt.Sprintf("%s/player/%d/crystals", baseURL, playerID)

	code, body := do(t, http.MethodDelete, u, nil, map[string]string{"Idempotency-Key": uuid.NewString()})
	if code != http.StatusOK {
		t.Fatalf("DELETE %s: want 200, got %d (%s)", u, code, body)
	}
}

func do(t *testing.T, method, u string, body any, headers map[string]string) (int, string) {
	t.Helper()

	var r io.Reader = http.NoBody

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

// waitUntilReady polls /healthz until it answers 200 or waitReady passes.
func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	u := baseURL + "/healthz"

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", u, waitReady)
		case <-tick.C:
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

			resp, err := httpClient.Do(req)
			if err != nil {
				continue
			}

			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
