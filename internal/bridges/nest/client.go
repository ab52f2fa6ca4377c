package nest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
)

// Defaults for a zero Config.
const (
	DefaultBaseURL  = "https://smartdevicemanagement.googleapis.com/v1"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	ScopeSDM        = "https://www.googleapis.com/auth/sdm.service"

	defaultTimeout     = 15 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 2 * time.Minute

	maxBodySize = 1 << 20
)

// Config configures the SDM client.
type Config struct {
	// ProjectID is the Device Access project ("enterprises/{ProjectID}").
	ProjectID string

	// DeviceName optionally pins a thermostat by resource name or display
	// name. It is preferred when listing; otherwise the first thermostat wins.
	DeviceName string

	BaseURL string
	Timeout time.Duration

	// MaxFailures consecutive failures open the breaker for OpenTimeout.
	MaxFailures int
	OpenTimeout time.Duration
}

// Credentials are the OAuth2 client and refresh token for the project.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// Logger is the logging interface used by the client.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Client reads the thermostat. It implements climate.Thermostat.
//
// Thread Safety: safe for concurrent use; the cached device name is guarded.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker

	mu         sync.Mutex
	deviceName string

	logger Logger
	now    func() time.Time
}

// NewOAuthHTTPClient returns an HTTP client that attaches access tokens
// minted from the refresh token. ctx scopes token refreshes and should live
// as long as the client.
func NewOAuthHTTPClient(ctx context.Context, creds Credentials, timeout time.Duration) *http.Client {
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       []string{ScopeSDM},
	}

	// Token refreshes use this client, so they get the same timeout.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}))
	client.Timeout = timeout
	return client
}

// New creates an SDM client. httpClient must add authorisation (see
// NewOAuthHTTPClient).
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: noopLogger{},
		now:    time.Now,
	}

	maxFailures := uint32(cfg.MaxFailures) //nolint:gosec // validated positive above
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nest-sdm",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up is not evidence the API is down.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.getLogger().Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// SetLogger sets the logger for rediscovery and breaker events.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

func (c *Client) getLogger() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// CachedDevice returns the resource name in use, or "" before the first read.
func (c *Client) CachedDevice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceName
}

// CurrentReading reads the cached thermostat, re-discovering it when the
// cached name is unset or its read fails.
func (c *Client) CurrentReading(ctx context.Context) (climate.Reading, error) {
	if name := c.CachedDevice(); name != "" {
		dev, err := c.GetDevice(ctx, name)
		if err == nil {
			return dev.Reading(c.now())
		}
		if ctx.Err() != nil || errors.Is(err, ErrUnavailable) {
			return climate.Reading{}, err
		}
		c.getLogger().Warn("unable to read thermostat, rediscovering", "device", name, "error", err)
		c.setDevice("")
	}

	dev, err := c.discover(ctx)
	if err != nil {
		return climate.Reading{}, err
	}
	return dev.Reading(c.now())
}

// discover lists devices, caches the chosen thermostat and reads it fresh.
func (c *Client) discover(ctx context.Context) (Device, error) {
	thermostats, err := c.ListThermostats(ctx)
	if err != nil {
		return Device{}, err
	}
	chosen, err := choose(thermostats, c.cfg.DeviceName)
	if err != nil {
		return Device{}, err
	}

	c.setDevice(chosen.Name)
	c.getLogger().Info("thermostat discovered", "device", chosen.Name, "name", chosen.DisplayName())

	return c.GetDevice(ctx, chosen.Name)
}

func choose(thermostats []Device, preferred string) (Device, error) {
	if len(thermostats) == 0 {
		return Device{}, ErrNoThermostat
	}
	if preferred != "" {
		for _, d := range thermostats {
			if d.Name == preferred || d.DisplayName() == preferred {
				return d, nil
			}
		}
	}
	return thermostats[0], nil
}

func (c *Client) setDevice(name string) {
	c.mu.Lock()
	c.deviceName = name
	c.mu.Unlock()
}

// ListThermostats returns the project's thermostat devices in API order.
func (c *Client) ListThermostats(ctx context.Context) ([]Device, error) {
	path := "/enterprises/" + url.PathEscape(c.cfg.ProjectID) + "/devices"

	var resp listResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	var out []Device
	for _, d := range resp.Devices {
		if d.Type == TypeThermostat {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetDevice fetches one device by resource name.
func (c *Client) GetDevice(ctx context.Context, name string) (Device, error) {
	var dev Device
	if err := c.get(ctx, "/"+strings.TrimPrefix(name, "/"), &dev); err != nil {
		return Device{}, err
	}
	return dev, nil
}

// apiError is the Google API error body.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// get performs one GET through the breaker and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doGet(ctx, path, v)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (c *Client) doGet(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: HTTP %d %s: %s", ErrRequestFailed, resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}
	return nil
}
