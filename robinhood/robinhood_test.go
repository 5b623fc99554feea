package robinhood

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestClient returns a client pointed at a test server, with pauses and
// backoff delays collapsed so tests run fast.
func newTestClient(t *testing.T, mux http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(&Session{AccessToken: "test-token", ExpiresAt: time.Now().Add(time.Hour)}, zerolog.Nop())
	c.HTTP = srv.Client()
	c.api, c.phoenix, c.nummus = srv.URL, srv.URL, srv.URL
	c.InstrumentPause, c.OptionPause, c.PagePause = 0, 0, 0
	c.Pacer.BaseDelay = time.Millisecond
	c.Pacer.MaxDelay = 2 * time.Millisecond
	return c
}

func TestGetPaged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/options/orders/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want the session bearer", got)
		}
		switch r.URL.Query().Get("cursor") {
		case "":
			if got := r.URL.Query().Get("account_numbers"); got != "5AB12345" {
				t.Errorf("account_numbers = %q, want 5AB12345", got)
			}
			fmt.Fprintf(w, `{"results": [{"id": "1"}, {"id": "2"}], "next": "http://%s/options/orders/?cursor=p2"}`, r.Host)
		case "p2":
			fmt.Fprint(w, `{"results": [{"id": "3"}], "next": null}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})
	c := newTestClient(t, mux)

	recs, err := c.FetchOptionOrders("5AB12345")
	if err != nil {
		t.Fatalf("FetchOptionOrders() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	for i, want := range []string{"1", "2", "3"} {
		if got := recs[i]["id"]; got != want {
			t.Errorf("record %d id = %v, want %v", i, got, want)
		}
	}
}

func TestGetRetriesThrottling(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolios/5AB12345/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			http.Error(w, `{"detail": "Request was throttled."}`, http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"equity": "15000.00"}`)
	})
	c := newTestClient(t, mux)

	payload, err := c.FetchPortfolio("5AB12345")
	if err != nil {
		t.Fatalf("FetchPortfolio() error = %v", err)
	}
	if got := payload["equity"]; got != "15000.00" {
		t.Errorf("equity = %v, want 15000.00", got)
	}
	if hits != 2 {
		t.Errorf("endpoint hit %d times, want 2", hits)
	}
}

func TestGetDoesNotRetryHardFailures(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/portfolios/5AB12345/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	})
	c := newTestClient(t, mux)

	_, err := c.FetchPortfolio("5AB12345")
	if err == nil {
		t.Fatal("FetchPortfolio() expected an error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("FetchPortfolio() error = %v, want the HTTP status", err)
	}
	if hits != 1 {
		t.Errorf("endpoint hit %d times, want 1", hits)
	}
}

func TestFirstResult(t *testing.T) {
	obj := map[string]any{"a": "x"}
	tests := []struct {
		name    string
		payload any
		want    map[string]any
	}{
		{"bare object", obj, obj},
		{"results envelope", map[string]any{"results": []any{obj, map[string]any{"a": "y"}}}, obj},
		{"empty envelope", map[string]any{"results": []any{}}, nil},
		{"single element list", []any{obj}, obj},
		{"empty list", []any{}, nil},
		{"scalar", "x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstResult(tt.payload); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("firstResult() = %v, want %v", got, tt.want)
			}
		})
	}
}
