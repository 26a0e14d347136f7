package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONOutcomes(t *testing.T) {
	var out appendTaskRequest

	err := decodeJSON(httptest.NewRequest(http.MethodPost, "/tasks", nil), &out)
	assert.ErrorIs(t, err, errEmptyBody)

	err = decodeJSON(httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("  \n")), &out)
	assert.ErrorIs(t, err, errEmptyBody)

	err = decodeJSON(httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"text":`)), &out)
	var merr *MalformedRequestError
	require.True(t, errors.As(err, &merr), "err = %v", err)
	assert.Contains(t, merr.Error(), "malformed JSON body")

	out = appendTaskRequest{}
	err = decodeJSON(httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"text":"ok","extra":1}`)), &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
}
