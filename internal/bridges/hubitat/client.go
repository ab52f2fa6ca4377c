package hubitat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response is kept for the message.
	maxErrorBody = 512
)

// Config contains the Maker API connection details.
type Config struct {
	// BaseURL is the hub address, for example "http://192.168.1.20".
	BaseURL     string
	AppID       string
	AccessToken string
	Timeout     time.Duration
}

// Client sends fan commands to the Maker API. It implements climate.FanController.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New validates cfg and creates a client. A nil httpClient gets one with
// cfg.Timeout.
//
// Parameters:
//   - cfg: Hub address, Maker API app id and access token
//   - httpClient: Optional HTTP client (tests pass the httptest client)
//
// Returns:
//   - *Client: Ready to send commands
//   - error: ErrInvalidConfig if any connection detail is missing
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if cfg.AppID == "" {
		missing = append(missing, "app_id")
	}
	if cfg.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/") + "/apps/api/" + url.PathEscape(cfg.AppID),
		token: cfg.AccessToken,
		http:  httpClient,
	}, nil
}

// SetSpeed sets a fan to the named speed level.
func (c *Client) SetSpeed(ctx context.Context, fanID, level string) error {
	if level == "" {
		return fmt.Errorf("%w: empty speed for fan %q", ErrInvalidCommand, fanID)
	}
	return c.command(ctx, fanID, "setSpeed", level)
}

// TurnOff switches a fan off.
func (c *Client) TurnOff(ctx context.Context, fanID string) error {
	return c.command(ctx, fanID, "off")
}

func (c *Client) command(ctx context.Context, fanID string, parts ...string) error {
	if fanID == "" {
		return fmt.Errorf("%w: empty fan id", ErrInvalidCommand)
	}

	segments := []string{c.base, "devices", url.PathEscape(fanID)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	endpoint := strings.Join(segments, "/") + "?" + url.Values{"access_token": {c.token}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, token included.
		return fmt.Errorf("%w: fan %s %s: %w", ErrRequestFailed, fanID, parts[0], redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort detail
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: fan %s %s: HTTP %d: %s", ErrRequestFailed, fanID, parts[0], resp.StatusCode, msg)
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
	return nil
}

func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
