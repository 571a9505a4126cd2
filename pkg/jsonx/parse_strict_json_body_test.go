package jsonx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name"`
}

func TestParseStrictJSONBodyOK(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	var dst sample
	require.NoError(t, ParseStrictJSONBody(req, &dst))
	assert.Equal(t, "x", dst.Name)
}

func TestParseStrictJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var dst sample
	assert.ErrorIs(t, ParseStrictJSONBody(req, &dst), ErrEmptyBody)
}

func TestParseStrictJSONBodyTrailingData(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}{"name":"y"}`))
	var dst sample
	assert.ErrorIs(t, ParseStrictJSONBody(req, &dst), ErrTrailingJSON)
}

func TestParseStrictJSONBodyUnknownField(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","extra":1}`))
	var dst sample
	assert.Error(t, ParseStrictJSONBody(req, &dst))
}
