package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

const healthTimeout = 500 * time.Millisecond

var errBadAmount = errors.New("amount must be positive")

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type walletResponse struct {
	Principal string `json:"principal"`
	Balance   uint64 `json:"balance"`
}

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

func (that *Server) getGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, apperror.ErrGameNotFound)
		return
	}

	game, err := that.games.Get(r.Context(), id)
	if err != nil {
		that.writeError(w, statusFor(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) getBalanceHandler(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")

	balance, err := that.wallets.Balance(r.Context(), principal)
	if err != nil {
		that.writeError(w, statusFor(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, walletResponse{Principal: principal, Balance: balance})
}

func (that *Server) depositHandler(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Amount == 0 {
		that.writeError(w, http.StatusBadRequest, errBadAmount)
		return
	}

	balance, err := that.wallets.Deposit(r.Context(), principal, req.Amount)
	if err != nil {
		that.writeError(w, statusFor(err), err)
		return
	}

	that.logger.Info("deposit accepted", "player", principal, "amount", req.Amount)
	that.writeJSON(w, http.StatusOK, walletResponse{Principal: principal, Balance: balance})
}

func (that *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := that.health(ctx); err != nil {
		that.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
	}

	code := apperror.Code(err)
	if status == http.StatusBadRequest && code == apperror.CodeInternal {
		code = http.StatusBadRequest
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound
	case apperror.IsRuleViolation(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
