// Package endpoint manages the relay side of a generated profile: the known
// WARP relay addresses, DNS-over-HTTPS discovery of additional ones, UDP
// reachability probing, and the selection of the single endpoint a profile
// will carry.
package endpoint

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strconv"
)

var (
	// ErrInvalidEndpoint is returned when a custom host or port fails validation.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrIndexOutOfRange is returned when a list selection points outside the
	// candidate list.
	ErrIndexOutOfRange = errors.New("endpoint index out of range")
	// ErrNoCandidates is returned when automatic selection has nothing to pick from.
	ErrNoCandidates = errors.New("no endpoint candidates available")
)

// Candidate is one selectable relay endpoint.
type Candidate struct {
	Host string `json:"host"` // IP literal or hostname
	Port int    `json:"port"` // UDP port
}

// String returns the candidate in the "host:port" form WireGuard Endpoint
// lines use. IPv6 literals are bracketed.
func (c Candidate) String() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Mode determines how Select picks the endpoint.
type Mode int

const (
	// ModeAuto takes the first candidate of the provided ordering.
	ModeAuto Mode = iota
	// ModeFromList takes the candidate at a caller-supplied index.
	ModeFromList
	// ModeCustom uses a caller-supplied host and port instead of a candidate.
	ModeCustom
)

// String returns the wire name of the mode as used by the API and the
// generation records.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeFromList:
		return "list"
	case ModeCustom:
		return "custom"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a wire name back to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "auto":
		return ModeAuto, nil
	case "list":
		return ModeFromList, nil
	case "custom":
		return ModeCustom, nil
	default:
		return ModeAuto, fmt.Errorf("%w: unknown selection mode %q", ErrInvalidEndpoint, name)
	}
}

// Choice is a caller's endpoint selection request. It is validated by Select,
// not at construction.
type Choice struct {
	Mode  Mode
	Index int    // candidate index, ModeFromList only
	Host  string // override host, ModeCustom only
	Port  int    // override port, ModeCustom only
}

// Auto requests the first candidate of the provided ordering.
func Auto() Choice { return Choice{Mode: ModeAuto} }

// FromList requests the candidate at the given index.
func FromList(index int) Choice { return Choice{Mode: ModeFromList, Index: index} }

// Custom requests a caller-supplied endpoint.
func Custom(host string, port int) Choice { return Choice{Mode: ModeCustom, Host: host, Port: port} }

// hostnamePattern matches RFC 1123 hostnames: dot-separated alphanumeric
// labels of at most 63 characters with optional interior hyphens.
var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Select resolves a choice against an ordered candidate list. It performs no
// network I/O and no re-ranking: the candidate ordering is the preference
// ordering, so repeated calls with the same inputs return the same endpoint.
func Select(choice Choice, candidates []Candidate) (Candidate, error) {
	switch choice.Mode {
	case ModeAuto:
		if len(candidates) == 0 {
			return Candidate{}, ErrNoCandidates
		}
		return candidates[0], nil

	case ModeFromList:
		if choice.Index < 0 || choice.Index >= len(candidates) {
			return Candidate{}, fmt.Errorf("%w: index %d with %d candidates", ErrIndexOutOfRange, choice.Index, len(candidates))
		}
		return candidates[choice.Index], nil

	case ModeCustom:
		if err := validateHost(choice.Host); err != nil {
			return Candidate{}, err
		}
		if choice.Port < 1 || choice.Port > 65535 {
			return Candidate{}, fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoint, choice.Port)
		}
		return Candidate{Host: choice.Host, Port: choice.Port}, nil

	default:
		return Candidate{}, fmt.Errorf("%w: unknown selection mode %d", ErrInvalidEndpoint, choice.Mode)
	}
}

// validateHost accepts an IP literal or a syntactically valid hostname.
// No resolution is attempted; a well-formed name that does not resolve is
// still accepted here and fails later at connection time.
func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidEndpoint)
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}
	if len(host) > 253 || !hostnamePattern.MatchString(host) {
		return fmt.Errorf("%w: host %q", ErrInvalidEndpoint, host)
	}
	return nil
}
