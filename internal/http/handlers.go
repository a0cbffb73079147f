package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rewards/internal/core"
	"rewards/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, r, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	tx, err := parseTransaction(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Rejected transaction", log.FieldError, err)
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := s.svc.AddTransaction(ctx, tx)
	switch {
	case errors.Is(err, core.ErrInvalidTransaction):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		logger.ErrorContext(ctx, "Add transaction failed", log.NewFields().
			WithError(err).
			WithOperation(log.OpCreate).
			WithTransaction(tx.ID, tx.CustomerID, tx.Amount.String(), tx.Date.String()).
			ToSlice()...)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleAllRewards(w http.ResponseWriter, r *http.Request) {
	all, err := s.svc.AllRewards(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List rewards failed", log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, all)
}

func (s *Server) handleCustomerRewards(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	resp, ok, err := s.svc.RewardsByCustomer(r.Context(), customerID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Customer rewards failed",
			log.FieldError, err, log.FieldCustomerID, customerID)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}
