package distributor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Server exposes the distributor over HTTP.
//
// Public endpoints:
//
//	POST /claim             - redeem an entitlement with a merkle proof
//	GET  /root              - current merkle root
//	GET  /claims/{address}  - redemption status for a recipient
//	GET  /health            - liveness and store health
//
// Administrative endpoints (caller is checked against the persisted
// authority, not transport identity; deploy behind an authenticating proxy):
//
//	POST /admin/root                - rotate the merkle root
//	POST /admin/pause               - suspend claim processing
//	POST /admin/unpause             - resume claim processing
//	POST /admin/authority/nominate  - propose a successor authority
//	POST /admin/authority/accept    - complete an authority handoff
//	POST /admin/sweep               - recover foreign tokens
type Server struct {
	distributor *Distributor
	limiter     *rate.Limiter
	httpServer  *http.Server
}

// NewServer creates the HTTP server. claimsPerSecond bounds the global rate
// of POST /claim; proof verification is cheap but transfers are not.
func NewServer(d *Distributor, port int, claimsPerSecond float64, claimBurst int) *Server {
	s := &Server{
		distributor: d,
		limiter:     rate.NewLimiter(rate.Limit(claimsPerSecond), claimBurst),
	}

	mux := http.NewServeMux()

	// Claim endpoints
	mux.HandleFunc("/claim", s.handleClaim)
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/claims/", s.handleClaimStatus)

	// Health endpoint
	mux.HandleFunc("/health", s.handleHealth)

	// Administrative endpoints
	mux.HandleFunc("/admin/root", s.handleRotateRoot)
	mux.HandleFunc("/admin/pause", s.handlePause)
	mux.HandleFunc("/admin/unpause", s.handleUnpause)
	mux.HandleFunc("/admin/authority/nominate", s.handleNominateAuthority)
	mux.HandleFunc("/admin/authority/accept", s.handleAcceptAuthority)
	mux.HandleFunc("/admin/sweep", s.handleSweep)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	go func() {
		s.distributor.logger.Sugar().Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.distributor.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP server down, letting in-flight requests drain.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
