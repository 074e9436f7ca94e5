package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Cell(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"ok", Success("Tiredness"), "Tiredness"},
		{"empty", Empty(), ""},
		{"misconfigured", Misconfigured(), "Config Error: No prompt template provided."},
		{"rate limit", RateLimitExhausted(), "API Error: Max retries exceeded (Rate Limit)."},
		{"transient", TransientError("AuthenticationError"), "API Error: AuthenticationError"},
		{"absent", Absent(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Cell())
		})
	}
}

func TestResult_OK(t *testing.T) {
	assert.True(t, Success("").OK())
	assert.False(t, Empty().OK())
	assert.False(t, TransientError("x").OK())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ok", KindOK.String())
	assert.Equal(t, "rate_limit_exhausted", KindRateLimitExhausted.String())
	assert.Equal(t, "absent", KindAbsent.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
