package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/internal/errors"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 16
)

// SignInHandler exchanges an email and password for a token pair
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.SignIn
		if err := decodeBody(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
			return
		}
		if err := req.Validate(); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error(), "validation_failed")
			return
		}

		pair, err := s.tokens.SignIn(r.Context(), req.Email, req.Password)
		if errors.Is(err, errors.ErrInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials", "unauthorized")
			return
		}
		if err != nil {
			s.log.Error().Err(err).Msg("Sign in failed")
			writeJSONError(w, http.StatusInternalServerError, "sign in failed", "internal_error")
			return
		}

		writeTokenResponse(w, pair)
	}
}

// RefreshHandler rotates a refresh token into a new token pair
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.RefreshTokenRequest
		if err := decodeBody(w, r, &req); err != nil || req.Token == "" {
			writeJSONError(w, http.StatusBadRequest, "token is required", "invalid_request")
			return
		}

		pair, err := s.tokens.Refresh(r.Context(), req.Token)
		if errors.Is(err, errors.ErrInvalidRefreshToken) {
			writeJSONError(w, http.StatusUnauthorized, "invalid refresh token", "unauthorized")
			return
		}
		if err != nil {
			s.log.Error().Err(err).Msg("Token refresh failed")
			writeJSONError(w, http.StatusInternalServerError, "token refresh failed", "internal_error")
			return
		}

		writeTokenResponse(w, pair)
	}
}

// MeHandler returns the profile of the authenticated user
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated", "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, user.Response())
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "route not found", "not_found")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeTokenResponse(w http.ResponseWriter, pair apimodel.TokenResponse) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, pair)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes the {message, error} body every endpoint fails with
func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, apimodel.ErrorResponse{Message: message, Error: code})
}
