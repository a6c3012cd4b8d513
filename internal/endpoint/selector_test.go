package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidates() []Candidate {
	return []Candidate{
		{Host: "162.159.192.1", Port: 2408},
		{Host: "188.114.96.1", Port: 2408},
	}
}

func TestSelect(t *testing.T) {
	t.Run("should pick the first candidate in auto mode", func(t *testing.T) {
		candidates := testCandidates()

		selected, err := Select(Auto(), candidates)
		require.NoError(t, err)

		assert.Equal(t, candidates[0], selected)
	})

	t.Run("should be deterministic in auto mode", func(t *testing.T) {
		candidates := testCandidates()

		first, err := Select(Auto(), candidates)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			selected, err := Select(Auto(), candidates)
			require.NoError(t, err)
			assert.Equal(t, first, selected)
		}
	})

	t.Run("should fail auto mode without candidates", func(t *testing.T) {
		_, err := Select(Auto(), nil)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("should pick candidates by index", func(t *testing.T) {
		candidates := testCandidates()

		selected, err := Select(FromList(1), candidates)
		require.NoError(t, err)

		assert.Equal(t, candidates[1], selected)
	})

	t.Run("should fail on an out of range index", func(t *testing.T) {
		candidates := testCandidates()

		_, err := Select(FromList(5), candidates)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		_, err = Select(FromList(-1), candidates)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("should accept a custom IP endpoint", func(t *testing.T) {
		selected, err := Select(Custom("10.0.0.1", 51820), testCandidates())
		require.NoError(t, err)

		assert.Equal(t, Candidate{Host: "10.0.0.1", Port: 51820}, selected)
	})

	t.Run("should accept a custom hostname endpoint", func(t *testing.T) {
		selected, err := Select(Custom("engage.cloudflareclient.com", 2408), nil)
		require.NoError(t, err)

		assert.Equal(t, Candidate{Host: "engage.cloudflareclient.com", Port: 2408}, selected)
	})

	t.Run("should accept a custom IPv6 endpoint", func(t *testing.T) {
		selected, err := Select(Custom("2606:4700:d0::a29f:c001", 2408), nil)
		require.NoError(t, err)

		assert.Equal(t, "[2606:4700:d0::a29f:c001]:2408", selected.String())
	})

	t.Run("should reject an invalid host", func(t *testing.T) {
		_, err := Select(Custom("not a host!", 0), testCandidates())
		assert.ErrorIs(t, err, ErrInvalidEndpoint)
	})

	t.Run("should reject an empty host", func(t *testing.T) {
		_, err := Select(Custom("", 2408), testCandidates())
		assert.ErrorIs(t, err, ErrInvalidEndpoint)
	})

	t.Run("should reject out of range ports", func(t *testing.T) {
		_, err := Select(Custom("10.0.0.1", 0), nil)
		assert.ErrorIs(t, err, ErrInvalidEndpoint)

		_, err = Select(Custom("10.0.0.1", 65536), nil)
		assert.ErrorIs(t, err, ErrInvalidEndpoint)
	})

	t.Run("should reject an unknown mode", func(t *testing.T) {
		_, err := Select(Choice{Mode: Mode(42)}, testCandidates())
		assert.ErrorIs(t, err, ErrInvalidEndpoint)
	})
}

func TestCandidate_String(t *testing.T) {
	t.Run("should format IPv4 endpoints", func(t *testing.T) {
		candidate := Candidate{Host: "162.159.192.1", Port: 2408}
		assert.Equal(t, "162.159.192.1:2408", candidate.String())
	})

	t.Run("should bracket IPv6 endpoints", func(t *testing.T) {
		candidate := Candidate{Host: "2606:4700:d0::a29f:c001", Port: 500}
		assert.Equal(t, "[2606:4700:d0::a29f:c001]:500", candidate.String())
	})
}
