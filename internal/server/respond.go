package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// respondJSON writes payload as JSON with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Headers are already out; nothing sensible left to do.
			return
		}
	}
}

// respondError writes the standard error envelope.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, api.ErrorResponse{Error: msg})
}

// decode reads the request body into dst and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed JSON body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Field())
		}
		return err
	}
	return nil
}

// respondStoreError maps storage sentinel errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrEmailExists):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, storage.ErrAlreadyMember):
		respondError(w, http.StatusConflict, "already a group member")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
