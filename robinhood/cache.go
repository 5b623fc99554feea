package robinhood

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// diskCache implements a simple disk cache for HTTP responses. The cache key
// embeds the day, so entries expire overnight. It is meant for iterating on
// report formatting without hammering live endpoints, never for production
// runs, which is why it is opt in.
type diskCache struct {
	base http.RoundTripper
	log  zerolog.Logger
}

// RoundTrip implements the http.RoundTripper interface. It checks for a
// cached response on disk first. If none is found, it proceeds with the
// actual HTTP request and caches the new response if it was successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if req.Method != http.MethodGet {
		return c.base.RoundTrip(req)
	}

	key := fmt.Sprintf("%s %s %s", time.Now().Format("2006-01-02"), req.Method, req.URL.String())
	key = fmt.Sprintf("rhf-%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", resp.Request.Method).Stringer("url", resp.Request.URL).Str("status", resp.Status).Msg("live fetch")
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	if err := c.put(key, resp); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache. DumpResponse leaves resp.Body
// readable for the caller.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(os.TempDir(), key), content, 0o600)
}

// newClient returns the http client the fetchers use. With RHF_HTTP_CACHE=1
// GET responses are served from a disk cache where entries expire daily.
func newClient(log zerolog.Logger) *http.Client {
	client := new(http.Client)
	if os.Getenv("RHF_HTTP_CACHE") == "1" {
		client.Transport = &diskCache{base: http.DefaultTransport, log: log}
	}
	return client
}
