package endpoint

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDiscoverer(t *testing.T, handler http.HandlerFunc) *Discoverer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	discoverer := NewDiscoverer(testLogger())
	discoverer.ResolverURL = server.URL
	discoverer.Client = server.Client()
	return discoverer
}

func TestDiscoverer_Candidates(t *testing.T) {
	t.Run("should query the resolver in dns-json form", func(t *testing.T) {
		var gotQuery, gotAccept string
		discoverer := testDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			gotAccept = r.Header.Get("accept")
			w.Write([]byte(`{"Answer":[]}`))
		})

		discoverer.Candidates(context.Background(), 2408)

		assert.Contains(t, gotQuery, "name=engage.cloudflareclient.com")
		assert.Contains(t, gotQuery, "type=A")
		assert.Equal(t, "application/dns-json", gotAccept)
	})

	t.Run("should merge discovered addresses after known ones", func(t *testing.T) {
		discoverer := testDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Answer":[
				{"data":"162.159.192.1"},
				{"data":"203.0.113.9"},
				{"data":"engage.cloudflareclient.com."}
			]}`))
		})

		candidates := discoverer.Candidates(context.Background(), 2408)

		require.Len(t, candidates, len(KnownWARPAddrs)+1)
		assert.Equal(t, Candidate{Host: KnownWARPAddrs[0], Port: 2408}, candidates[0])
		assert.Equal(t, Candidate{Host: "203.0.113.9", Port: 2408}, candidates[len(candidates)-1])
	})

	t.Run("should skip answer records that are not addresses", func(t *testing.T) {
		discoverer := testDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Answer":[{"data":"not-an-ip"},{"data":""}]}`))
		})

		candidates := discoverer.Candidates(context.Background(), 500)

		assert.Len(t, candidates, len(KnownWARPAddrs))
	})

	t.Run("should fall back to known addresses when the resolver errors", func(t *testing.T) {
		discoverer := testDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		candidates := discoverer.Candidates(context.Background(), 2408)

		require.Len(t, candidates, len(KnownWARPAddrs))
		for i, addr := range KnownWARPAddrs {
			assert.Equal(t, Candidate{Host: addr, Port: 2408}, candidates[i])
		}
	})

	t.Run("should fall back to known addresses when the resolver is unreachable", func(t *testing.T) {
		discoverer := NewDiscoverer(testLogger())
		discoverer.ResolverURL = "http://127.0.0.1:1"

		candidates := discoverer.Candidates(context.Background(), 2408)

		assert.Len(t, candidates, len(KnownWARPAddrs))
	})

	t.Run("should fall back to known addresses on a garbled response", func(t *testing.T) {
		discoverer := testDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{ nope"))
		})

		candidates := discoverer.Candidates(context.Background(), 2408)

		assert.Len(t, candidates, len(KnownWARPAddrs))
	})
}
