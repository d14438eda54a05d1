package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/gridroom-server/internal/core"
)

func TestParseTokenAcceptsIdentity(t *testing.T) {
	id, err := ParseToken(`{"name":"alice","userId":"u-1"}`)
	require.NoError(t, err)
	assert.Equal(t, core.Identity{PlayerID: "u-1", Name: "alice"}, id)
}

func TestParseTokenTrimsWhitespace(t *testing.T) {
	id, err := ParseToken("  {\"name\":\"bob\",\"userId\":\"u-2\"}\n")
	require.NoError(t, err)
	assert.Equal(t, "u-2", id.PlayerID)
}

func TestParseTokenUnwrapsArray(t *testing.T) {
	id, err := ParseToken(`["{\"name\":\"carol\",\"userId\":\"u-3\"}", "{\"name\":\"x\",\"userId\":\"y\"}"]`)
	require.NoError(t, err)
	assert.Equal(t, core.Identity{PlayerID: "u-3", Name: "carol"}, id)
}

func TestAuthenticateFirstValueWins(t *testing.T) {
	id, err := Authenticate([]string{
		`{"name":"dave","userId":"u-4"}`,
		`{"name":"eve","userId":"u-5"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-4", id.PlayerID)
}

func TestParseTokenRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty", raw: "", want: ErrMissingToken},
		{name: "not json", raw: "alice", want: ErrMalformedToken},
		{name: "truncated json", raw: `{"name":"alice"`, want: ErrMalformedToken},
		{name: "number", raw: "42", want: ErrMalformedToken},
		{name: "missing userId", raw: `{"name":"alice"}`, want: ErrMissingField},
		{name: "missing name", raw: `{"userId":"u-1"}`, want: ErrMissingField},
		{name: "numeric userId", raw: `{"name":"alice","userId":7}`, want: ErrMissingField},
		{name: "array of objects", raw: `[{"name":"alice","userId":"u-1"}]`, want: ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
			assert.True(t, errors.Is(err, core.ErrAuth), "expected auth error, got %v", err)
		})
	}
}

func TestAuthenticateWithoutValues(t *testing.T) {
	_, err := Authenticate(nil)
	assert.ErrorIs(t, err, ErrMissingToken)
}
