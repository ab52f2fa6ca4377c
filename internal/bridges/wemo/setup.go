package wemo

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// BasicEventService is the UPnP service type every WeMo switch exposes.
const BasicEventService = "urn:Belkin:service:basicevent:1"

// defaultControlPath is used when setup.xml does not list basicevent.
const defaultControlPath = "/upnp/control/basicevent1"

// maxSetupSize caps setup.xml reads; real documents are a few KB.
const maxSetupSize = 256 << 10

// setupDocument is the subset of setup.xml used here.
type setupDocument struct {
	XMLName xml.Name `xml:"root"`
	Device  struct {
		DeviceType   string `xml:"deviceType"`
		FriendlyName string `xml:"friendlyName"`
		ModelName    string `xml:"modelName"`
		SerialNumber string `xml:"serialNumber"`
		MACAddress   string `xml:"macAddress"`
		Services     []struct {
			ServiceType string `xml:"serviceType"`
			ControlURL  string `xml:"controlURL"`
		} `xml:"serviceList>service"`
	} `xml:"device"`
}

// Setup describes one device as advertised by its setup.xml.
type Setup struct {
	Name       string
	MAC        string
	Serial     string
	Model      string
	DeviceType string

	// ControlURL is the absolute basicevent control endpoint.
	ControlURL string
}

// FetchSetup downloads and parses setup.xml from location.
func FetchSetup(ctx context.Context, client *http.Client, location string) (Setup, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Setup{}, fmt.Errorf("%w: %s returned HTTP %d", ErrInvalidSetup, location, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSetupSize))
	if err != nil {
		return Setup{}, fmt.Errorf("%w: reading body: %w", ErrInvalidSetup, err)
	}
	return parseSetup(location, body)
}

func parseSetup(location string, body []byte) (Setup, error) {
	var doc setupDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}

	d := doc.Device
	if d.FriendlyName == "" {
		return Setup{}, fmt.Errorf("%w: no friendlyName", ErrInvalidSetup)
	}

	controlPath := defaultControlPath
	for _, svc := range d.Services {
		if svc.ServiceType == BasicEventService && svc.ControlURL != "" {
			controlPath = svc.ControlURL
			break
		}
	}

	control, err := resolve(location, controlPath)
	if err != nil {
		return Setup{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
	}

	return Setup{
		Name:       strings.TrimSpace(d.FriendlyName),
		MAC:        NormalizeMAC(d.MACAddress),
		Serial:     strings.TrimSpace(d.SerialNumber),
		Model:      strings.TrimSpace(d.ModelName),
		DeviceType: strings.TrimSpace(d.DeviceType),
		ControlURL: control,
	}, nil
}

// resolve makes ref absolute against the setup.xml location.
func resolve(location, ref string) (string, error) {
	base, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing location %q: %w", location, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("location %q is not absolute", location)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing control URL %q: %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}

// NormalizeMAC strips separators and upper-cases a MAC address.
func NormalizeMAC(mac string) string {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	return strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
}
