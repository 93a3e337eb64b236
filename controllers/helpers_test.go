package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/identity"
	"go-phonestore/services"
)

func TestRespondErrStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("order x: %w", services.ErrNotFound), http.StatusNotFound},
		{"invalid", fmt.Errorf("bad: %w", services.ErrInvalid), http.StatusBadRequest},
		{"conflict", fmt.Errorf("taken: %w", services.ErrConflict), http.StatusConflict},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"unavailable", services.ErrUnavailable, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unsupported", identity.ErrUnsupported, http.StatusNotImplemented},
		{"wrong password", &identity.AuthError{Code: identity.CodeWrongPassword}, http.StatusUnauthorized},
		{"unknown user", &identity.AuthError{Code: identity.CodeUserNotFound}, http.StatusNotFound},
		{"email taken", &identity.AuthError{Code: identity.CodeEmailAlreadyInUse}, http.StatusConflict},
		{"weak password", &identity.AuthError{Code: identity.CodeWeakPassword}, http.StatusBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondErr(rec, httptest.NewRequest("GET", "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRespondErrHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondErr(rec, httptest.NewRequest("GET", "/", nil), errors.New("dial tcp 10.0.0.3: refused"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, identity.GenericMessage, body["error"])
}

func TestParseDay(t *testing.T) {
	d, ok := parseDay("")
	assert.True(t, ok)
	assert.True(t, d.IsZero())

	d, ok = parseDay("2026-03-01")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseDay("2026-03-01T10:30:00Z")
	assert.True(t, ok)
	assert.Equal(t, 10, d.Hour())

	_, ok = parseDay("yesterday")
	assert.False(t, ok)
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=7&featured=true&bad=maybe&junk=x", nil)
	assert.Equal(t, 7, queryInt(r, "limit", 3))
	assert.Equal(t, 3, queryInt(r, "junk", 3))
	assert.Equal(t, 3, queryInt(r, "missing", 3))

	require.NotNil(t, queryBool(r, "featured"))
	assert.True(t, *queryBool(r, "featured"))
	assert.Nil(t, queryBool(r, "bad"))
	assert.Nil(t, queryBool(r, "missing"))
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	rec := httptest.NewRecorder()
	var dst map[string]any
	ok := decodeJSON(rec, httptest.NewRequest("POST", "/", nil), &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
