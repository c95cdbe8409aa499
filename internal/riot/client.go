package riot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"leagueback/internal/ratelimit"
)

const (
	// API base URLs
	AmericasBaseURL = "https://americas.api.riotgames.com"
	NA1BaseURL      = "https://na1.api.riotgames.com"

	// Rate limits for dev key (using conservative values to be safe)
	requestsPerSecond = 15 // Actual: 20
	requestsPer2Min   = 90 // Actual: 100

	maxAttempts       = 3
	defaultRetryAfter = 10 * time.Second
)

// StatusError is returned when the Riot API (or proxy) answers with a
// non-200 status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	switch e.StatusCode {
	case http.StatusForbidden:
		return "API returned 403 Forbidden - check if your API key is valid"
	case http.StatusNotFound:
		return "API returned 404 Not Found - player/match may not exist"
	}
	return fmt.Sprintf("API returned status %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsKeyRejected reports whether err is a 401/403, meaning the API key is
// missing, invalid or expired.
func IsKeyRejected(err error) bool {
	var se *StatusError
	return errors.As(err, &se) &&
		(se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}

// IsRateLimited reports whether err is a 429 that outlived every retry.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// Client is a rate-limited Riot API client. It talks either to the Riot
// regional host directly (with an API key) or to a proxy that holds the key
// and exposes /api/account, /api/matches and /api/match routes.
type Client struct {
	baseURL    string
	proxy      bool
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithAPIKey sets the X-Riot-Token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithRegionalURL points the client at a Riot regional host (or a test server).
func WithRegionalURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
		c.proxy = false
	}
}

// WithProxyURL routes requests through a key-holding proxy.
func WithProxyURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
		c.proxy = true
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter replaces the default dev-key limiter.
func WithLimiter(l *ratelimit.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a new Riot API client
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL: AmericasBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: ratelimit.New(
			ratelimit.Rule{Limit: requestsPerSecond, Window: time.Second},
			ratelimit.Rule{Limit: requestsPer2Min, Window: 2 * time.Minute},
		),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		return nil, errors.New("riot base URL is empty")
	}
	if !c.proxy && c.apiKey == "" {
		return nil, errors.New("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set")
	}

	c.log = c.log.Named("riot")
	if len(c.apiKey) > 10 {
		c.log.Info("using API key", zap.String("key", c.apiKey[:8]+"..."+c.apiKey[len(c.apiKey)-4:]))
	}
	return c, nil
}

// doRequest makes a rate-limited GET, retrying 429 responses.
func (c *Client) doRequest(ctx context.Context, rawURL string, result interface{}) error {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryAfter, err := c.do(ctx, rawURL, result)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) || attempt >= maxAttempts {
			return err
		}

		c.log.Warn("rate limited by API",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("retry_after", retryAfter))

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, rawURL string, result interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Riot-Token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return parseRetryAfter(resp.Header.Get("Retry-After")), &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return 0, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// GetAccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	path := "/riot/account/v1/accounts/by-riot-id/%s/%s"
	if c.proxy {
		path = "/api/account/%s/%s"
	}
	u := c.baseURL + fmt.Sprintf(path, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account AccountResponse
	if err := c.doRequest(ctx, u, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetMatchHistory fetches ranked match IDs for a player, newest first.
func (c *Client) GetMatchHistory(ctx context.Context, puuid string, count, start int) ([]string, error) {
	path := "/lol/match/v5/matches/by-puuid/%s/ids"
	if c.proxy {
		path = "/api/matches/%s"
	}
	q := url.Values{}
	q.Set("type", "ranked")
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))
	u := c.baseURL + fmt.Sprintf(path, url.PathEscape(puuid)) + "?" + q.Encode()

	var matchIDs []string
	if err := c.doRequest(ctx, u, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// GetMatch fetches match details
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	path := "/lol/match/v5/matches/%s"
	if c.proxy {
		path = "/api/match/%s"
	}
	u := c.baseURL + fmt.Sprintf(path, url.PathEscape(matchID))

	var match MatchResponse
	if err := c.doRequest(ctx, u, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// GetTimeline fetches match timeline
func (c *Client) GetTimeline(ctx context.Context, matchID string) (*TimelineResponse, error) {
	path := "/lol/match/v5/matches/%s/timeline"
	if c.proxy {
		path = "/api/match/%s/timeline"
	}
	u := c.baseURL + fmt.Sprintf(path, url.PathEscape(matchID))

	var timeline TimelineResponse
	if err := c.doRequest(ctx, u, &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}
