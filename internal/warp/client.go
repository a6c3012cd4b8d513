// Package warp registers WireGuard public keys with the Cloudflare WARP
// service and extracts the profile parameters from its response: the tunnel
// addresses assigned to the device, the relay public key, and the relay
// endpoint candidates.
package warp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"warpgen/internal/endpoint"
)

const (
	// DefaultBaseURL is the versioned registration endpoint. The path pins
	// the API version the request and response schemas are written against.
	DefaultBaseURL = "https://api.cloudflareclient.com/v0a1925/reg"

	// DefaultPeerPublicKey is the well-known WARP relay key, used when the
	// response carries no peer entries.
	DefaultPeerPublicKey = "bmXOC+F1FxEMF9dyiK2H5/1SUtzH0JuVo51h2wPfgyo="

	// userAgent matches the official Android client; the service filters on it.
	userAgent = "okhttp/3.12.1"

	// tosTimestamp is the terms-of-service acceptance the service expects.
	tosTimestamp = "2024-01-01T00:00:00.000Z"

	// DefaultTimeout bounds a registration call end to end.
	DefaultTimeout = 10 * time.Second

	// relayPort is the assumed UDP port for response endpoints that carry a
	// bare address without one.
	relayPort = 2408

	// maxErrorBody limits how much of an error response body is kept.
	maxErrorBody = 4096
)

var (
	// ErrNetwork is returned when the registration call fails before an HTTP
	// status is received, including timeouts.
	ErrNetwork = errors.New("registration request failed")
	// ErrMalformedResponse is returned when the service answers with a body
	// that cannot be decoded or is missing required fields.
	ErrMalformedResponse = errors.New("malformed registration response")
)

// ServiceError reports a non-success status from the registration service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("registration service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Options carry the optional device hints submitted with a registration.
// Zero values fall back to the defaults of the official Android client.
type Options struct {
	Locale     string // e.g. "en_US"
	DeviceType string // e.g. "Android"
}

// Registration is the parsed outcome of a successful registration. It is
// immutable once returned and scoped to the request that created it.
type Registration struct {
	DeviceID      string               // service-assigned device identifier
	Addresses     []string             // tunnel addresses with prefix, IPv4 first
	PeerPublicKey string               // relay public key for the [Peer] section
	Candidates    []endpoint.Candidate // relay endpoints advertised in the response
	Reserved      []int                // opaque client routing tag, passed through
}

// Client performs device registrations against the WARP service.
// A zero-configured client from NewClient talks to the production endpoint
// with the default timeout; both are overridable because the remote contract
// is versioned and environments differ.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a registration client. An empty baseURL selects
// DefaultBaseURL and a non-positive timeout selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "warp"),
	}
}

// Register submits the public key and returns the parsed registration.
// It performs exactly one outbound call per invocation and never retries;
// surfacing failures is the caller's concern.
func (c *Client) Register(ctx context.Context, publicKey string, opts Options) (*Registration, error) {
	if opts.Locale == "" {
		opts.Locale = "en_US"
	}
	if opts.DeviceType == "" {
		opts.DeviceType = "Android"
	}

	payload, err := json.Marshal(registerRequest{
		Key:         publicKey,
		WarpEnabled: true,
		Tos:         tosTimestamp,
		Type:        opts.DeviceType,
		Locale:      opts.Locale,
	})
	if err != nil {
		return nil, fmt.Errorf("encode registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("registration rejected", "status", resp.StatusCode)
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	registration, err := parseRegistration(&decoded)
	if err != nil {
		return nil, err
	}
	c.logger.Info("device registered", "device_id", registration.DeviceID, "addresses", len(registration.Addresses))
	return registration, nil
}

// parseRegistration maps the wire response onto a Registration. Unknown
// fields were already dropped by decoding; this is where missing required
// fields fail closed.
func parseRegistration(resp *registerResponse) (*Registration, error) {
	v4 := resp.Config.Interface.Addresses.V4
	if v4 == "" {
		return nil, fmt.Errorf("%w: missing interface address", ErrMalformedResponse)
	}

	addresses := []string{withPrefix(v4, "/32")}
	if v6 := resp.Config.Interface.Addresses.V6; v6 != "" {
		addresses = append(addresses, withPrefix(v6, "/128"))
	}

	peerKey := DefaultPeerPublicKey
	if len(resp.Config.Peers) > 0 && resp.Config.Peers[0].PublicKey != "" {
		peerKey = resp.Config.Peers[0].PublicKey
	}

	var candidates []endpoint.Candidate
	for _, peer := range resp.Config.Peers {
		port := relayPort
		hostName := ""
		if peer.Endpoint.Host != "" {
			// The host entry usually carries the advertised port, which
			// then also applies to the bare v4/v6 addresses.
			if h, p, err := net.SplitHostPort(peer.Endpoint.Host); err == nil {
				hostName = h
				if parsed, err := strconv.Atoi(p); err == nil {
					port = parsed
				}
			} else {
				hostName = peer.Endpoint.Host
			}
		}
		if peer.Endpoint.V4 != "" {
			candidates = append(candidates, endpoint.Candidate{Host: peer.Endpoint.V4, Port: port})
		}
		if peer.Endpoint.V6 != "" {
			candidates = append(candidates, endpoint.Candidate{Host: strings.Trim(peer.Endpoint.V6, "[]"), Port: port})
		}
		if hostName != "" {
			candidates = append(candidates, endpoint.Candidate{Host: hostName, Port: port})
		}
	}

	return &Registration{
		DeviceID:      resp.ID,
		Addresses:     addresses,
		PeerPublicKey: peerKey,
		Candidates:    candidates,
		Reserved:      resp.Config.ClientCfg.Reserved,
	}, nil
}

// withPrefix appends the prefix length to a bare address. Addresses that
// already carry one are kept as sent.
func withPrefix(addr, prefix string) string {
	if strings.Contains(addr, "/") {
		return addr
	}
	return addr + prefix
}
