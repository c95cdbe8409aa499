package riot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LoL Status is the cheapest endpoint that still requires a key.
const platformStatusPath = "/lol/status/v4/platform-data"

// KeyStatus is the outcome of CheckKey.
type KeyStatus int

const (
	// KeyUnknown means the platform could not be reached or answered
	// with something other than 200, 401 or 403.
	KeyUnknown KeyStatus = iota
	KeyAccepted
	KeyRejected
)

func (s KeyStatus) String() string {
	switch s {
	case KeyAccepted:
		return "accepted"
	case KeyRejected:
		return "rejected"
	}
	return "unknown"
}

// CheckKey asks the platform host whether apiKey is accepted. A nil hc uses
// http.DefaultClient; bound the call with ctx.
func CheckKey(ctx context.Context, hc *http.Client, platformURL, apiKey string) (KeyStatus, error) {
	if apiKey == "" {
		return KeyUnknown, errors.New("riot API key is empty")
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	u := platformURL + platformStatusPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return KeyUnknown, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Riot-Token", apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return KeyUnknown, fmt.Errorf("key check failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return KeyAccepted, nil
	}
	statusErr := &StatusError{StatusCode: resp.StatusCode, URL: u}
	if IsKeyRejected(statusErr) {
		return KeyRejected, nil
	}
	return KeyUnknown, statusErr
}
