package wemo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/koron/go-ssdp"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// Discovery defaults.
const (
	DefaultSearchWait   = 3 * time.Second
	DefaultSetupTimeout = 10 * time.Second
	defaultHTTPTimeout  = 10 * time.Second
)

// Logger is the logging interface used by the directory.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// SearchFunc performs an SSDP M-SEARCH. It matches ssdp.Search.
type SearchFunc func(searchType string, waitSec int, localAddr string) ([]ssdp.Service, error)

// DirectoryConfig configures discovery.
type DirectoryConfig struct {
	// Wait is how long to collect SSDP responses. Rounded up to whole seconds.
	Wait time.Duration

	// LocalAddr binds the search socket to one interface; empty means any.
	LocalAddr string

	// SetupTimeout bounds each setup.xml fetch. A responder that misses it
	// is logged and skipped.
	SetupTimeout time.Duration

	// HTTPClient is used for setup.xml and SOAP calls. SOAP deadlines come
	// from the caller's context.
	HTTPClient *http.Client
}

// Directory discovers WeMo switches. It implements device.Directory.
type Directory struct {
	cfg    DirectoryConfig
	search SearchFunc
	logger Logger
}

// NewDirectory creates a directory that searches with go-ssdp.
func NewDirectory(cfg DirectoryConfig) *Directory {
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultSearchWait
	}
	if cfg.SetupTimeout <= 0 {
		cfg.SetupTimeout = DefaultSetupTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Directory{cfg: cfg, search: ssdp.Search, logger: noopLogger{}}
}

// SetLogger sets the logger for discovery events.
func (d *Directory) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// SetSearch replaces the SSDP search, for tests.
func (d *Directory) SetSearch(search SearchFunc) {
	d.search = search
}

type searchResult struct {
	services []ssdp.Service
	err      error
}

// Discover runs one SSDP search and returns every responder whose setup.xml
// could be read. A responder that fails setup is logged and left out; only a
// failed search is an error.
func (d *Directory) Discover(ctx context.Context) ([]device.Switch, error) {
	waitSec := int(math.Ceil(d.cfg.Wait.Seconds()))

	// ssdp.Search blocks for waitSec and takes no context.
	done := make(chan searchResult, 1)
	go func() {
		services, err := d.search(BasicEventService, waitSec, d.cfg.LocalAddr)
		done <- searchResult{services, err}
	}()

	var res searchResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, res.err)
	}

	locations := uniqueLocations(res.services)
	d.logger.Debug("ssdp search complete", "responses", len(res.services), "locations", len(locations))

	seen := make(map[string]bool, len(locations))
	switches := make([]device.Switch, 0, len(locations))
	for _, loc := range locations {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrSearchFailed, ctx.Err())
		}

		setup, err := d.fetchSetup(ctx, loc)
		if err != nil {
			d.logger.Warn("wemo setup fetch failed", "location", loc, "error", err)
			continue
		}

		sw := NewSwitch(setup, d.cfg.HTTPClient)
		if seen[sw.Address()] {
			continue
		}
		seen[sw.Address()] = true
		switches = append(switches, sw)
	}
	return switches, nil
}

func (d *Directory) fetchSetup(ctx context.Context, location string) (Setup, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.SetupTimeout)
	defer cancel()
	return FetchSetup(ctx, d.cfg.HTTPClient, location)
}

// uniqueLocations returns each distinct setup.xml URL once, sorted.
func uniqueLocations(services []ssdp.Service) []string {
	set := make(map[string]struct{}, len(services))
	for _, s := range services {
		if s.Location != "" {
			set[s.Location] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for loc := range set {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
