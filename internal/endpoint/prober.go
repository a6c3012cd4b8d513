package endpoint

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single candidate probe.
const DefaultProbeTimeout = time.Second

// ProbeResult pairs a candidate with its probe outcome.
type ProbeResult struct {
	Candidate Candidate `json:"candidate"`
	OK        bool      `json:"ok"`
}

// Prober checks UDP reachability of relay candidates. Relays never answer
// arbitrary datagrams, so a positive result only means the datagram left the
// host without an immediate routing or resolution error.
type Prober struct {
	Timeout time.Duration

	logger *slog.Logger
}

// NewProber creates a Prober with the given per-candidate timeout.
// A non-positive timeout falls back to DefaultProbeTimeout.
func NewProber(timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		Timeout: timeout,
		logger:  logger.With("component", "endpoint"),
	}
}

// Probe checks all candidates concurrently. The result slice preserves the
// input ordering regardless of probe completion order.
func (p *Prober) Probe(ctx context.Context, candidates []Candidate) []ProbeResult {
	results := make([]ProbeResult, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate Candidate) {
			defer wg.Done()
			results[i] = ProbeResult{Candidate: candidate, OK: p.probe(ctx, candidate)}
		}(i, candidate)
	}
	wg.Wait()

	reachable := 0
	for _, result := range results {
		if result.OK {
			reachable++
		}
	}
	p.logger.Debug("candidate probe finished", "candidates", len(results), "reachable", reachable)

	return results
}

// probe connects a UDP socket to the candidate and sends a single byte.
func (p *Prober) probe(ctx context.Context, candidate Candidate) bool {
	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "udp", candidate.String())
	if err != nil {
		return false
	}
	defer conn.Close()

	deadline := time.Now().Add(p.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false
	}

	_, err = conn.Write([]byte{0x00})
	return err == nil
}

// Rank orders probed candidates for automatic selection: reachable first,
// then the rest, preserving relative order within each class. Feeding the
// ranked list to Select with ModeAuto yields the first reachable candidate,
// or the first candidate overall when none responded.
func Rank(results []ProbeResult) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for _, result := range results {
		if result.OK {
			candidates = append(candidates, result.Candidate)
		}
	}
	for _, result := range results {
		if !result.OK {
			candidates = append(candidates, result.Candidate)
		}
	}
	return candidates
}
