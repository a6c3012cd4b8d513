package endpoint

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"
	"time"
)

// KnownWARPAddrs lists the published WARP relay addresses. They are always
// offered first; DNS discovery can only append to them.
var KnownWARPAddrs = []string{
	"162.159.192.1",
	"162.159.192.2",
	"162.159.192.3",
	"162.159.193.1",
	"162.159.193.2",
	"162.159.193.3",
	"188.114.96.1",
	"188.114.97.1",
}

const (
	// defaultResolverURL answers DNS queries over HTTPS in JSON form.
	defaultResolverURL = "https://cloudflare-dns.com/dns-query"
	// relayHostname is the service name whose A records point at live relays.
	relayHostname = "engage.cloudflareclient.com"

	discoverTimeout = 10 * time.Second
)

// Discoverer finds relay candidate addresses. It merges the static known
// list with addresses resolved over DNS-over-HTTPS, so a resolver outage
// degrades to the static list instead of failing.
type Discoverer struct {
	ResolverURL string
	Client      *http.Client

	logger *slog.Logger
}

// NewDiscoverer creates a Discoverer backed by the public resolver.
func NewDiscoverer(logger *slog.Logger) *Discoverer {
	return &Discoverer{
		ResolverURL: defaultResolverURL,
		Client:      &http.Client{Timeout: discoverTimeout},
		logger:      logger.With("component", "endpoint"),
	}
}

// Candidates returns the de-duplicated relay list, known addresses first,
// each paired with the given UDP port.
func (d *Discoverer) Candidates(ctx context.Context, port int) []Candidate {
	seen := make(map[string]bool)
	var candidates []Candidate
	for _, addr := range KnownWARPAddrs {
		if !seen[addr] {
			seen[addr] = true
			candidates = append(candidates, Candidate{Host: addr, Port: port})
		}
	}
	for _, addr := range d.discover(ctx) {
		if !seen[addr] {
			seen[addr] = true
			candidates = append(candidates, Candidate{Host: addr, Port: port})
		}
	}
	return candidates
}

// discover resolves the relay hostname over DNS-over-HTTPS and returns the
// valid addresses from the answer section. Any failure returns an empty list.
func (d *Discoverer) discover(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.ResolverURL, nil)
	if err != nil {
		d.logger.Debug("DNS discovery request build failed", "error", err)
		return nil
	}
	query := req.URL.Query()
	query.Set("name", relayHostname)
	query.Set("type", "A")
	req.URL.RawQuery = query.Encode()
	req.Header.Set("accept", "application/dns-json")

	resp, err := d.Client.Do(req)
	if err != nil {
		d.logger.Debug("DNS discovery failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Debug("DNS discovery rejected", "status", resp.StatusCode)
		return nil
	}

	var answer struct {
		Answer []struct {
			Data string `json:"data"`
		} `json:"Answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		d.logger.Debug("DNS discovery response unreadable", "error", err)
		return nil
	}

	var addrs []string
	for _, record := range answer.Answer {
		// CNAME and other record types share the answer section; keep
		// only entries that parse as addresses.
		if _, err := netip.ParseAddr(record.Data); err == nil {
			addrs = append(addrs, record.Data)
		}
	}
	return addrs
}
