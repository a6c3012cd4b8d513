// Package generator orchestrates profile generation: it creates a fresh key
// pair, resolves the endpoint choice against the probed candidates, registers
// the public key with the WARP service and renders the resulting WireGuard
// configuration. Each call is independent and request-scoped; nothing is
// shared between concurrent generations.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warpgen/internal/endpoint"
	"warpgen/internal/warp"
	"warpgen/internal/wireguard"
)

// Default profile values written into generated configs. The bare serializer
// omits both; these are the values mobile WARP setups expect.
var DefaultDNS = []string{"1.1.1.1", "1.0.0.1"}

// DefaultKeepalive keeps NAT mappings warm between handshakes.
const DefaultKeepalive = 25

// Registrar registers a public key with the WARP service. *warp.Client is
// the production implementation.
type Registrar interface {
	Register(ctx context.Context, publicKey string, opts warp.Options) (*warp.Registration, error)
}

// Notifier receives a side-channel notification after each fully successful
// generation. Notifier failures are the notifier's own concern and never
// fail the generation.
type Notifier interface {
	GenerationSucceeded(ctx context.Context, event Event)
}

// Event describes a completed generation for notifiers.
type Event struct {
	Mode      string    // selection mode wire name
	Endpoint  string    // endpoint written into the profile
	Port      int       // endpoint UDP port
	ClientIP  string    // requesting client, empty outside the HTTP surface
	Timestamp time.Time // when the generation finished
}

// Request carries one generation's inputs.
type Request struct {
	Choice   endpoint.Choice
	Probes   []endpoint.ProbeResult // probed candidates in display order
	ClientIP string

	// Optional registration hints; zero values use the service defaults.
	Locale     string
	DeviceType string
}

// Result is a fully generated profile. It is only returned complete: any
// failure along the way yields no partial result.
type Result struct {
	Config       string // rendered WireGuard configuration
	ConfFilename string // suggested download name for the config
	QRFilename   string // suggested download name for a QR rendering
	Endpoint     string // selected endpoint in "host:port" form
	Mode         string // selection mode wire name
	DeviceID     string // service-assigned device identifier
	Timestamp    int64  // generation time in unix milliseconds
}

// Generator produces WARP profiles. Safe for concurrent use.
type Generator struct {
	registrar Registrar
	notifier  Notifier
	dns       []string
	keepalive int
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Generator using the given registrar. Generated profiles
// carry the default DNS servers and keepalive.
func New(registrar Registrar, logger *slog.Logger) *Generator {
	return &Generator{
		registrar: registrar,
		dns:       DefaultDNS,
		keepalive: DefaultKeepalive,
		logger:    logger.With("component", "generator"),
		now:       time.Now,
	}
}

// SetNotifier sets an optional notifier invoked after successful generations.
func (g *Generator) SetNotifier(n Notifier) { g.notifier = n }

// Generate runs one full generation. Ordering matters: the endpoint choice is
// validated before any key material is created or network call made, so
// invalid input never consumes a registration.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	selected, err := endpoint.Select(req.Choice, g.selectionList(req))
	if err != nil {
		return nil, err
	}

	keyPair, err := wireguard.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	registration, err := g.registrar.Register(ctx, keyPair.PublicKey, warp.Options{
		Locale:     req.Locale,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	profile := &wireguard.Profile{
		PrivateKey:          keyPair.PrivateKey,
		Addresses:           registration.Addresses,
		DNS:                 g.dns,
		PeerPublicKey:       registration.PeerPublicKey,
		Endpoint:            selected.String(),
		PersistentKeepalive: g.keepalive,
	}
	config, err := profile.GenerateConfigFile()
	if err != nil {
		return nil, err
	}

	finished := g.now()
	millis := finished.UnixMilli()
	result := &Result{
		Config:       config,
		ConfFilename: fmt.Sprintf("warp-%d.conf", millis),
		QRFilename:   fmt.Sprintf("warp-%d.png", millis),
		Endpoint:     selected.String(),
		Mode:         req.Choice.Mode.String(),
		DeviceID:     registration.DeviceID,
		Timestamp:    millis,
	}

	g.logger.Info("profile generated",
		"mode", result.Mode,
		"endpoint", result.Endpoint,
		"device_id", result.DeviceID,
	)

	if g.notifier != nil {
		g.notifier.GenerationSucceeded(ctx, Event{
			Mode:      result.Mode,
			Endpoint:  result.Endpoint,
			Port:      selected.Port,
			ClientIP:  req.ClientIP,
			Timestamp: finished,
		})
	}

	return result, nil
}

// selectionList orders the probed candidates for the requested mode. Auto
// prefers reachable candidates; list selection keeps the display order so
// indexes match what the caller was shown.
func (g *Generator) selectionList(req Request) []endpoint.Candidate {
	if req.Choice.Mode == endpoint.ModeAuto {
		return endpoint.Rank(req.Probes)
	}
	candidates := make([]endpoint.Candidate, len(req.Probes))
	for i, probe := range req.Probes {
		candidates[i] = probe.Candidate
	}
	return candidates
}
