// Package robinhood is a read only client for Robinhood's private REST API.
//
// There is no official API. The endpoints used here are the ones the mobile
// and web apps talk to, so payload shapes can change without notice. The
// fetchers therefore return raw decoded records and leave typing to the
// caller, which can drop malformed records one by one instead of failing a
// whole fetch.
package robinhood

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rhfolio/rhfolio"
	"github.com/rs/zerolog"
)

// The three services behind the app.
const (
	apiBase     = "https://api.robinhood.com"
	phoenixBase = "https://phoenix.robinhood.com" // aggregate account, the only source of crypto equity
	nummusBase  = "https://nummus.robinhood.com"  // crypto orders
)

// maxPages caps cursor following on paginated endpoints.
const maxPages = 50

// Client fetches account data from the private Robinhood REST API.
type Client struct {
	HTTP  *http.Client
	Pacer *rhfolio.Pacer
	Log   zerolog.Logger

	// Pauses between consecutive lookups of the same kind. The market data
	// endpoints throttle the hardest.
	InstrumentPause time.Duration
	OptionPause     time.Duration
	PagePause       time.Duration

	session *Session

	api     string
	phoenix string
	nummus  string

	// per run memoization, positions and orders reference the same
	// instruments over and over
	instruments map[string]map[string]any
	options     map[string]optionData
	quotes      map[string]string
	pairs       map[string]string
}

// New returns a client authorized by the given session.
func New(session *Session, log zerolog.Logger) *Client {
	log = log.With().Str("component", "robinhood").Logger()
	return &Client{
		HTTP:            newClient(log),
		Pacer:           rhfolio.NewPacer(),
		Log:             log,
		InstrumentPause: 200 * time.Millisecond,
		OptionPause:     300 * time.Millisecond,
		PagePause:       time.Second,
		session:         session,
		api:             apiBase,
		phoenix:         phoenixBase,
		nummus:          nummusBase,
		instruments:     map[string]map[string]any{},
		options:         map[string]optionData{},
		quotes:          map[string]string{},
		pairs:           map[string]string{},
	}
}

// get performs an authorized GET on addr and decodes the JSON answer into
// data. Rate limited rejections are retried by the pacer.
func (c *Client) get(addr string, params url.Values, data any) error {
	if len(params) > 0 {
		addr += "?" + params.Encode()
	}
	return c.Pacer.Do(func() error {
		req, err := http.NewRequest(http.MethodGet, addr, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
		req.Header.Set("Accept", "application/json")
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
		}
		return json.NewDecoder(resp.Body).Decode(data)
	})
}

// getPaged follows the next cursor of a paginated endpoint and returns the
// records of every page in order.
func (c *Client) getPaged(addr string, params url.Values) ([]map[string]any, error) {
	var records []map[string]any
	for page := 0; addr != ""; page++ {
		if page >= maxPages {
			c.Log.Warn().Str("url", addr).Int("records", len(records)).Msg("pagination cut short")
			break
		}
		if page > 0 {
			c.Pacer.Pause(c.PagePause)
		}
		var payload struct {
			Results []map[string]any `json:"results"`
			Next    string           `json:"next"`
		}
		if err := c.get(addr, params, &payload); err != nil {
			return nil, err
		}
		records = append(records, payload.Results...)
		// the next URL is absolute and already carries the cursor
		addr, params = payload.Next, nil
	}
	return records, nil
}

// firstResult unwraps the endpoints that answer with a single element list
// or a results envelope instead of a bare object.
func firstResult(payload any) map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			if len(results) == 0 {
				return nil
			}
			rec, _ := results[0].(map[string]any)
			return rec
		}
		return v
	case []any:
		if len(v) == 0 {
			return nil
		}
		rec, _ := v[0].(map[string]any)
		return rec
	}
	return nil
}
