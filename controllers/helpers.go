package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"go-phonestore/identity"
	"go-phonestore/middleware"
	"go-phonestore/services"
	"go-phonestore/utils"
)

const (
	requestTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// decodeJSON reads the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

// currentUser returns the caller or answers 401
func currentUser(w http.ResponseWriter, r *http.Request) (*identity.Principal, bool) {
	p, ok := middleware.CurrentUser(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return p, true
}

// respondErr maps service errors to status codes. Unexpected errors are
// logged, reported to Sentry and answered with a generic message.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *identity.AuthError
	switch {
	case errors.As(err, &ae):
		status := http.StatusBadRequest
		switch ae.Code {
		case identity.CodeUserNotFound:
			status = http.StatusNotFound
		case identity.CodeWrongPassword, identity.CodeInvalidToken:
			status = http.StatusUnauthorized
		case identity.CodeEmailAlreadyInUse:
			status = http.StatusConflict
		}
		utils.RespondJSON(w, status, map[string]string{"error": ae.Message(), "code": ae.Code})
	case errors.Is(err, identity.ErrUnsupported):
		utils.RespondError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalid):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		utils.RespondError(w, http.StatusServiceUnavailable, "service unavailable, please try again")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		utils.RespondError(w, http.StatusInternalServerError, identity.GenericMessage)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryBool(r *http.Request, key string) *bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
