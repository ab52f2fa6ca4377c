package wemo

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxResponseSize = 64 << 10

const envelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>` +
	`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
	`<s:Body><u:%[1]s xmlns:u="%[2]s">%[3]s</u:%[1]s></s:Body></s:Envelope>`

// binaryStateEnvelope matches both GetBinaryStateResponse and
// SetBinaryStateResponse bodies; only the BinaryState element matters.
type binaryStateEnvelope struct {
	Body struct {
		Inner struct {
			BinaryState string `xml:"BinaryState"`
		} `xml:",any"`
		Fault *struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// call performs one basicevent SOAP action and returns the BinaryState
// element of the response.
func call(ctx context.Context, client *http.Client, controlURL, action, args string) (string, error) {
	body := fmt.Sprintf(envelopeTemplate, action, BasicEventService, args)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, BasicEventService, action))

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRequestFailed, action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: %s: reading body: %w", ErrRequestFailed, action, err)
	}

	var env binaryStateEnvelope
	decodeErr := xml.NewDecoder(bytes.NewReader(raw)).Decode(&env)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && env.Body.Fault != nil {
			return "", fmt.Errorf("%w: %s: HTTP %d: %s", ErrRequestFailed, action, resp.StatusCode, env.Body.Fault.String)
		}
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrRequestFailed, action, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %s: decoding response: %w", ErrRequestFailed, action, decodeErr)
	}
	return strings.TrimSpace(env.Body.Inner.BinaryState), nil
}

// getBinaryState queries the relay state.
func getBinaryState(ctx context.Context, client *http.Client, controlURL string) (bool, error) {
	state, err := call(ctx, client, controlURL, "GetBinaryState", "")
	if err != nil {
		return false, err
	}
	return parseBinaryState(state)
}

// setBinaryState switches the relay. The reply is the new state, or "Error"
// when the relay was already in the requested state; both are success.
func setBinaryState(ctx context.Context, client *http.Client, controlURL string, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	reply, err := call(ctx, client, controlURL, "SetBinaryState", "<BinaryState>"+value+"</BinaryState>")
	if err != nil {
		return err
	}
	if reply == "Error" {
		return nil
	}
	_, err = parseBinaryState(reply)
	return err
}

// parseBinaryState reads the leading field of a BinaryState value.
// 0 is off; 1 is on; 8 is Insight standby, which still has the relay closed.
func parseBinaryState(s string) (bool, error) {
	head, _, _ := strings.Cut(s, "|")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrUnexpectedState, s)
	}
	switch n {
	case 0:
		return false, nil
	case 1, 8:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnexpectedState, s)
	}
}
