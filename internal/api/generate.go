// Package api provides the REST endpoints for profile generation, endpoint
// probing and usage statistics using the Gin web framework.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"warpgen/internal/endpoint"
	"warpgen/internal/generator"
	"warpgen/internal/qr"
	"warpgen/internal/warp"
	"warpgen/internal/wireguard"
)

// DefaultPort is the UDP port offered when a request does not name one.
const DefaultPort = 500

// maxProbeTimeout caps client-requested probe timeouts.
const maxProbeTimeout = 10 * time.Second

// GenerateAPI provides the profile generation and endpoint probing endpoints.
// It drives the generator with probed candidates and renders the QR payload
// for the finished profile.
type GenerateAPI struct {
	generator    *generator.Generator
	discoverer   *endpoint.Discoverer
	qr           *qr.Generator
	probeTimeout time.Duration // default per-candidate probe timeout
	logger       *slog.Logger
}

// Request/Response structures
type GenerateRequest struct {
	Mode         string  `json:"mode,omitempty"`          // "auto" (default), "list" or "custom"
	Index        *int    `json:"index,omitempty"`         // candidate index for list mode
	CustomHost   string  `json:"custom_host,omitempty"`   // host for custom mode
	Port         int     `json:"port,omitempty"`          // UDP port, DefaultPort when omitted
	ProbeTimeout float64 `json:"probe_timeout,omitempty"` // per-candidate probe timeout in seconds
}

type GenerateResponse struct {
	Conf         string `json:"conf"`
	ConfFilename string `json:"conf_filename"`
	QR           string `json:"qr"`
	QRFilename   string `json:"qr_filename"`
	Endpoint     string `json:"endpoint"`
	Mode         string `json:"mode"`
	DeviceID     string `json:"device_id"`
	Timestamp    int64  `json:"timestamp"`
}

type EndpointInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
}

type EndpointsResponse struct {
	Port      int            `json:"port"`
	Endpoints []EndpointInfo `json:"endpoints"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewGenerateAPI creates a new generation API instance. A non-positive
// probeTimeout falls back to the prober default.
func NewGenerateAPI(gen *generator.Generator, discoverer *endpoint.Discoverer, qrGen *qr.Generator, probeTimeout time.Duration, logger *slog.Logger) *GenerateAPI {
	if probeTimeout <= 0 {
		probeTimeout = endpoint.DefaultProbeTimeout
	}
	return &GenerateAPI{
		generator:    gen,
		discoverer:   discoverer,
		qr:           qrGen,
		probeTimeout: probeTimeout,
		logger:       logger.With("component", "api"),
	}
}

// Generate handles POST /api/v1/generate.
// It probes the candidate list, runs one full generation and returns the
// rendered profile together with its QR payload. Nothing partial is ever
// returned: any failure yields only an error body.
func (api *GenerateAPI) Generate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	port := req.Port
	if port == 0 {
		port = DefaultPort
	}
	if port < 1 || port > 65535 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "port must be between 1 and 65535"})
		return
	}

	choice, err := choiceFrom(req, port)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	candidates := api.discoverer.Candidates(ctx, port)
	prober := endpoint.NewProber(api.probeDuration(req.ProbeTimeout), api.logger)
	probes := prober.Probe(ctx, candidates)

	result, err := api.generator.Generate(ctx, generator.Request{
		Choice:   choice,
		Probes:   probes,
		ClientIP: ClientIP(c),
	})
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	qrURI, err := api.qr.DataURI(result.Config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to encode QR code"})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Conf:         result.Config,
		ConfFilename: result.ConfFilename,
		QR:           qrURI,
		QRFilename:   result.QRFilename,
		Endpoint:     result.Endpoint,
		Mode:         result.Mode,
		DeviceID:     result.DeviceID,
		Timestamp:    result.Timestamp,
	})
}

// Endpoints handles GET /api/v1/endpoints.
// It returns the probed candidate list for the requested port in display
// order, each entry flagged with its reachability.
func (api *GenerateAPI) Endpoints(c *gin.Context) {
	port := DefaultPort
	if raw := c.Query("port"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 65535 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "port must be between 1 and 65535"})
			return
		}
		port = parsed
	}

	timeout := api.probeTimeout
	if raw := c.Query("probe_timeout"); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || seconds <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "probe_timeout must be a positive number of seconds"})
			return
		}
		timeout = api.probeDuration(seconds)
	}

	ctx := c.Request.Context()
	candidates := api.discoverer.Candidates(ctx, port)
	prober := endpoint.NewProber(timeout, api.logger)
	results := prober.Probe(ctx, candidates)

	infos := make([]EndpointInfo, 0, len(results))
	for _, result := range results {
		infos = append(infos, EndpointInfo{
			Host:     result.Candidate.Host,
			Port:     result.Candidate.Port,
			Endpoint: result.Candidate.String(),
			OK:       result.OK,
		})
	}

	c.JSON(http.StatusOK, EndpointsResponse{Port: port, Endpoints: infos})
}

// choiceFrom maps request fields onto a selector choice. The selector itself
// rejects bad indexes and hosts; only cross-field requirements live here.
func choiceFrom(req GenerateRequest, port int) (endpoint.Choice, error) {
	mode, err := endpoint.ParseMode(req.Mode)
	if err != nil {
		return endpoint.Choice{}, err
	}

	switch mode {
	case endpoint.ModeFromList:
		if req.Index == nil {
			return endpoint.Choice{}, fmt.Errorf("%w: index is required for list mode", endpoint.ErrInvalidEndpoint)
		}
		return endpoint.FromList(*req.Index), nil
	case endpoint.ModeCustom:
		return endpoint.Custom(req.CustomHost, port), nil
	default:
		return endpoint.Auto(), nil
	}
}

func (api *GenerateAPI) probeDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return api.probeTimeout
	}
	d := time.Duration(seconds * float64(time.Second))
	if d > maxProbeTimeout {
		return maxProbeTimeout
	}
	return d
}

// statusForError maps generation failures onto HTTP statuses: caller
// mistakes are 400, upstream refusals 502, upstream unreachability 504.
func statusForError(err error) int {
	switch {
	case errors.Is(err, endpoint.ErrInvalidEndpoint),
		errors.Is(err, endpoint.ErrIndexOutOfRange),
		errors.Is(err, endpoint.ErrNoCandidates),
		errors.Is(err, wireguard.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, warp.ErrNetwork):
		return http.StatusGatewayTimeout
	case errors.Is(err, warp.ErrMalformedResponse):
		return http.StatusBadGateway
	}

	var serviceErr *warp.ServiceError
	if errors.As(err, &serviceErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ClientIP returns the originating client address, preferring the first hop
// of X-Forwarded-For when present.
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return c.ClientIP()
}
