package distributor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/access"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/claims"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// statusForClaimError maps engine sentinels onto HTTP status codes. Unknown
// errors fall through to 500 without leaking internals to the caller.
func statusForClaimError(err error) (int, string) {
	switch {
	case errors.Is(err, claims.ErrInvalidProof):
		return http.StatusForbidden, "invalid proof"
	case errors.Is(err, claims.ErrAlreadyClaimed):
		return http.StatusConflict, "entitlement already claimed"
	case errors.Is(err, claims.ErrClaimsPaused):
		return http.StatusServiceUnavailable, "claims are paused"
	case errors.Is(err, claims.ErrTransferFailed):
		return http.StatusBadGateway, "token transfer failed"
	case errors.Is(err, claims.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid claim parameters"
	case errors.Is(err, claims.ErrUnauthorized), errors.Is(err, access.ErrNotAuthority):
		return http.StatusForbidden, "caller is not the authority"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponseV1{
		Error:     message,
		RequestID: requestID,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.distributor.logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}

// handleClaim handles POST /claim.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	if !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "claim rate limit exceeded", requestID)
		return
	}

	var req types.ClaimRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	claimant, err := parseAddress("claimant", req.Claimant)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	instruction, err := s.distributor.Claims.Claim(r.Context(), claimant, amount, proof)
	if err != nil {
		status, message := statusForClaimError(err)
		if status == http.StatusInternalServerError {
			s.distributor.logger.Sugar().Errorw("Claim failed",
				"request_id", requestID,
				"claimant", claimant.Hex(),
				"error", err,
			)
		}
		s.writeError(w, status, message, requestID)
		return
	}

	root, err := s.distributor.Claims.CurrentRoot()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal error", requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, types.ClaimResponseV1{
		Claimant: instruction.To.Hex(),
		Amount:   instruction.Amount.String(),
		Root:     "0x" + common.Bytes2Hex(root[:]),
	})
}

// handleRoot handles GET /root.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	root, err := s.distributor.Claims.CurrentRoot()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal error", requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, types.RootResponseV1{
		Root: "0x" + common.Bytes2Hex(root[:]),
	})
}

// handleClaimStatus handles GET /claims/{address}.
func (s *Server) handleClaimStatus(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/claims/")
	claimant, err := parseAddress("address", raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	claimed, err := s.distributor.Claims.IsClaimed(claimant)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal error", requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, types.ClaimStatusResponseV1{
		Claimant: claimant.Hex(),
		Claimed:  claimed,
	})
}

// handleHealth handles GET /health. Reports degraded with 503 when the
// backing store is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.distributor.Store.HealthCheck(); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRotateRoot handles POST /admin/root.
func (s *Server) handleRotateRoot(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req types.RotateRootRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	newRoot, err := parseDigest("new_root", req.NewRoot)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if err := s.distributor.Claims.RotateRoot(caller, newRoot); err != nil {
		status, message := statusForClaimError(err)
		s.writeError(w, status, message, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, types.RootResponseV1{Root: req.NewRoot})
}

// handlePause handles POST /admin/pause.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.handlePauseState(w, r, true)
}

// handleUnpause handles POST /admin/unpause.
func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	s.handlePauseState(w, r, false)
}

func (s *Server) handlePauseState(w http.ResponseWriter, r *http.Request, pause bool) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req types.PauseRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if pause {
		err = s.distributor.Access.Pause(caller)
	} else {
		err = s.distributor.Access.Unpause(caller)
	}
	if err != nil {
		status, message := statusForClaimError(err)
		s.writeError(w, status, message, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"paused": pause})
}

// handleNominateAuthority handles POST /admin/authority/nominate.
func (s *Server) handleNominateAuthority(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req types.NominateAuthorityRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	// The zero address clears a pending handoff, so it is allowed here.
	var nominee common.Address
	if req.Nominee != "" {
		if !common.IsHexAddress(req.Nominee) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("nominee must be a hex address, got %q", req.Nominee), requestID)
			return
		}
		nominee = common.HexToAddress(req.Nominee)
	}

	if err := s.distributor.Access.NominateAuthority(caller, nominee); err != nil {
		status, message := statusForClaimError(err)
		s.writeError(w, status, message, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"nominee": nominee.Hex()})
}

// handleAcceptAuthority handles POST /admin/authority/accept.
func (s *Server) handleAcceptAuthority(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req types.AcceptAuthorityRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if err := s.distributor.Access.AcceptAuthority(caller); err != nil {
		status, message := statusForClaimError(err)
		s.writeError(w, status, message, requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"authority": caller.Hex()})
}

// handleSweep handles POST /admin/sweep.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	if s.distributor.Sweeper == nil {
		s.writeError(w, http.StatusNotImplemented, "configured token ledger cannot sweep foreign assets", requestID)
		return
	}

	var req types.SweepRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	token, err := parseAddress("token", req.Token)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	allowed, err := s.distributor.Access.IsAuthorityFor(types.ActionSweep, caller)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal error", requestID)
		return
	}
	if !allowed {
		s.writeError(w, http.StatusForbidden, "caller is not the authority", requestID)
		return
	}

	if err := s.distributor.Sweeper.SweepToken(r.Context(), token, to, amount); err != nil {
		s.distributor.logger.Sugar().Errorw("Sweep failed",
			"request_id", requestID,
			"token", token.Hex(),
			"error", err,
		)
		s.writeError(w, http.StatusBadGateway, "sweep transfer failed", requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"token":  token.Hex(),
		"to":     to.Hex(),
		"amount": amount.String(),
	})
}
