package robinhood

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Robinhood has no public API. The OAuth client id below is the one the
// official apps ship with, and the password grant is the same handshake they
// perform.
const oauthClientID = "c82SH0WZOsabOXGP2sxqcj34FxkvfnWRZBKlBjFS"

// sessionLifetime is the token lifetime requested from the grant endpoint.
const sessionLifetime = 24 * time.Hour

// ErrNoSession reports that no usable stored session exists.
var ErrNoSession = errors.New("no stored session, run 'rhf login' first")

// Session is the bearer token obtained from the password grant, persisted
// between runs so that only login ever needs credentials.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	// DeviceToken identifies this installation to the grant endpoint. It is
	// generated once and reused on every login, a fresh one would trigger a
	// device verification challenge.
	DeviceToken string `json:"device_token"`
}

// Valid reports whether the session can still authorize requests.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

// sessionFile is where the session is persisted, under the user config dir.
func sessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rhfolio", "session.json"), nil
}

// LoadSession reads the stored session. It fails with ErrNoSession when none
// was stored, and when the stored one has expired.
func LoadSession() (*Session, error) {
	file, err := sessionFile()
	if err != nil {
		return nil, err
	}
	return loadSession(file)
}

func loadSession(file string) (*Session, error) {
	s, err := readSession(file)
	if err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, fmt.Errorf("session expired on %s: %w", s.ExpiresAt.Format(time.RFC3339), ErrNoSession)
	}
	return s, nil
}

// readSession reads the session file without checking expiry. Login uses it
// to recover the device token from an expired session.
func readSession(file string) (*Session, error) {
	content, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	s := new(Session)
	if err := json.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", file, err)
	}
	return s, nil
}

// Save persists the session for later runs.
func (s *Session) Save() error {
	file, err := sessionFile()
	if err != nil {
		return err
	}
	return s.save(file)
}

func (s *Session) save(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return err
	}
	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	// the file holds a live bearer token
	return os.WriteFile(file, content, 0o600)
}

// MFAPrompt returns the one time code for a two factor challenge. mfaType is
// the challenge kind reported by the endpoint, "app" or "sms".
type MFAPrompt func(mfaType string) (string, error)

// Login performs the password grant and returns a fresh session. When the
// account has two factor auth enabled, mfa is called for the code and the
// grant is retried with it. The caller saves the session.
func Login(username, password string, mfa MFAPrompt) (*Session, error) {
	file, err := sessionFile()
	if err != nil {
		return nil, err
	}
	return login(http.DefaultClient, apiBase, deviceToken(file), username, password, mfa)
}

// deviceToken reuses the device token of any previously stored session, even
// an expired one, and generates a new one otherwise.
func deviceToken(file string) string {
	if s, err := readSession(file); err == nil && s.DeviceToken != "" {
		return s.DeviceToken
	}
	return uuid.NewString()
}

// grantPayload is the answer of the token endpoint. Rejections and pending
// challenges come back as payload fields, not HTTP errors.
type grantPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	MFARequired  bool   `json:"mfa_required"`
	MFAType      string `json:"mfa_type"`
	Detail       string `json:"detail"`
}

func login(client *http.Client, base, device, username, password string, mfa MFAPrompt) (*Session, error) {
	form := url.Values{
		"grant_type":   {"password"},
		"scope":        {"internal"},
		"client_id":    {oauthClientID},
		"expires_in":   {strconv.Itoa(int(sessionLifetime / time.Second))},
		"device_token": {device},
		"username":     {username},
		"password":     {password},
	}

	grant, err := postGrant(client, base, form)
	if err != nil {
		return nil, err
	}
	if grant.MFARequired {
		if mfa == nil {
			return nil, fmt.Errorf("account requires a %s code and no prompt is available", grant.MFAType)
		}
		code, err := mfa(grant.MFAType)
		if err != nil {
			return nil, err
		}
		form.Set("mfa_code", code)
		if grant, err = postGrant(client, base, form); err != nil {
			return nil, err
		}
	}
	if grant.AccessToken == "" {
		detail := grant.Detail
		if detail == "" {
			detail = "no detail given"
		}
		return nil, fmt.Errorf("login rejected: %s", detail)
	}
	return &Session{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
		DeviceToken:  device,
	}, nil
}

func postGrant(client *http.Client, base string, form url.Values) (grantPayload, error) {
	var grant grantPayload
	resp, err := client.PostForm(base+"/oauth2/token/", form)
	if err != nil {
		return grant, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return grant, fmt.Errorf("cannot http POST %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return grant, fmt.Errorf("cannot decode grant answer: %w", err)
	}
	return grant, nil
}
