package wireguard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidProfile is returned when a profile is missing or carries a
// malformed required field. Rendering fails before any output is produced.
var ErrInvalidProfile = errors.New("invalid profile")

// Profile represents the WireGuard client profile for a registered WARP
// device. It contains all settings needed to render a complete client
// configuration file that tunnels through a WARP relay.
type Profile struct {
	PrivateKey          string   // Base64-encoded client private key
	Addresses           []string // Tunnel addresses with CIDR notation (e.g., "172.16.0.2/32")
	DNS                 []string // DNS servers for the client to use; omitted from output when empty
	PeerPublicKey       string   // Base64-encoded public key of the WARP relay
	AllowedIPs          []string // IP ranges routed through the tunnel; defaults to all traffic
	Endpoint            string   // Relay endpoint in "host:port" format
	PersistentKeepalive int      // Keepalive interval in seconds; omitted from output when zero
}

// defaultAllowedIPs routes all IPv4 and IPv6 traffic through the tunnel.
var defaultAllowedIPs = []string{"0.0.0.0/0", "::/0"}

// GenerateConfigFile renders the profile as a WireGuard configuration file in
// the INI-like format understood by wg-quick. Section and key order is fixed,
// so identical profiles always render to identical bytes: the [Interface]
// section with PrivateKey, Address and optional DNS, a blank line, then the
// [Peer] section with PublicKey, AllowedIPs, Endpoint and optional
// PersistentKeepalive.
// Returns the configuration file content, or ErrInvalidProfile if a required
// field is missing or malformed, in which case nothing is emitted.
func (p *Profile) GenerateConfigFile() (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	allowed := p.AllowedIPs
	if len(allowed) == 0 {
		allowed = defaultAllowedIPs
	}

	var config strings.Builder

	config.WriteString("[Interface]\n")
	config.WriteString(fmt.Sprintf("PrivateKey = %s\n", p.PrivateKey))
	config.WriteString(fmt.Sprintf("Address = %s\n", strings.Join(p.Addresses, ", ")))
	if len(p.DNS) > 0 {
		config.WriteString(fmt.Sprintf("DNS = %s\n", strings.Join(p.DNS, ", ")))
	}

	config.WriteString("\n[Peer]\n")
	config.WriteString(fmt.Sprintf("PublicKey = %s\n", p.PeerPublicKey))
	config.WriteString(fmt.Sprintf("AllowedIPs = %s\n", strings.Join(allowed, ", ")))
	config.WriteString(fmt.Sprintf("Endpoint = %s\n", p.Endpoint))
	if p.PersistentKeepalive > 0 {
		config.WriteString(fmt.Sprintf("PersistentKeepalive = %d\n", p.PersistentKeepalive))
	}

	return config.String(), nil
}

// validate checks every required field before any output is rendered.
func (p *Profile) validate() error {
	if p.PrivateKey == "" {
		return fmt.Errorf("%w: missing private key", ErrInvalidProfile)
	}
	if err := validateKey(p.PrivateKey); err != nil {
		return fmt.Errorf("%w: private key: %v", ErrInvalidProfile, err)
	}
	if len(p.Addresses) == 0 {
		return fmt.Errorf("%w: missing address", ErrInvalidProfile)
	}
	for _, addr := range p.Addresses {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("%w: empty address", ErrInvalidProfile)
		}
	}
	if p.PeerPublicKey == "" {
		return fmt.Errorf("%w: missing peer public key", ErrInvalidProfile)
	}
	if err := validateKey(p.PeerPublicKey); err != nil {
		return fmt.Errorf("%w: peer public key: %v", ErrInvalidProfile, err)
	}
	if p.Endpoint == "" {
		return fmt.Errorf("%w: missing endpoint", ErrInvalidProfile)
	}
	if _, _, err := net.SplitHostPort(p.Endpoint); err != nil {
		return fmt.Errorf("%w: endpoint %q: %v", ErrInvalidProfile, p.Endpoint, err)
	}
	return nil
}

// validateKey checks that a key string decodes to the 32 bytes WireGuard
// expects. Rendering a config with a truncated or garbled key would produce
// a file wg-quick rejects, so the profile fails closed instead.
func validateKey(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	if len(decoded) != 32 {
		return fmt.Errorf("got %d bytes, want 32", len(decoded))
	}
	return nil
}
