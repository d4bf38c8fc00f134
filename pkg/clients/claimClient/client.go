package claimClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/claims"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// ClientConfig holds the configuration for the claim client
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client is a typed HTTP client for the distributor service. Error responses
// are mapped back onto the engine's sentinel errors so callers can use
// errors.Is the same way on both sides of the wire.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new claim client instance
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     config.Logger,
	}, nil
}

// Claim redeems an entitlement against the distributor's current root.
func (c *Client) Claim(ctx context.Context, claimant common.Address, amount *big.Int, proof [][32]byte) (*types.ClaimResponseV1, error) {
	elements := make([]string, len(proof))
	for i, p := range proof {
		elements[i] = "0x" + common.Bytes2Hex(p[:])
	}

	req := types.ClaimRequestV1{
		Claimant: claimant.Hex(),
		Amount:   amount.String(),
		Proof:    elements,
	}

	var resp types.ClaimResponseV1
	if err := c.post(ctx, "/claim", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Claim accepted",
		"claimant", resp.Claimant,
		"amount", resp.Amount,
	)
	return &resp, nil
}

// Root fetches the distributor's current merkle root.
func (c *Client) Root(ctx context.Context) ([32]byte, error) {
	var resp types.RootResponseV1
	if err := c.get(ctx, "/root", &resp); err != nil {
		return [32]byte{}, err
	}
	return parseDigest(resp.Root)
}

// IsClaimed reports whether a recipient has already redeemed.
func (c *Client) IsClaimed(ctx context.Context, recipient common.Address) (bool, error) {
	var resp types.ClaimStatusResponseV1
	if err := c.get(ctx, "/claims/"+recipient.Hex(), &resp); err != nil {
		return false, err
	}
	return resp.Claimed, nil
}

// Health checks the distributor's liveness.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.get(ctx, "/health", &resp)
}

// RotateRoot replaces the distributor's merkle root. Authority only.
func (c *Client) RotateRoot(ctx context.Context, caller common.Address, newRoot [32]byte) error {
	req := types.RotateRootRequestV1{
		Caller:  caller.Hex(),
		NewRoot: "0x" + common.Bytes2Hex(newRoot[:]),
	}
	var resp types.RootResponseV1
	return c.post(ctx, "/admin/root", req, &resp)
}

// Pause suspends claim processing. Authority only.
func (c *Client) Pause(ctx context.Context, caller common.Address) error {
	var resp map[string]bool
	return c.post(ctx, "/admin/pause", types.PauseRequestV1{Caller: caller.Hex()}, &resp)
}

// Unpause resumes claim processing. Authority only.
func (c *Client) Unpause(ctx context.Context, caller common.Address) error {
	var resp map[string]bool
	return c.post(ctx, "/admin/unpause", types.PauseRequestV1{Caller: caller.Hex()}, &resp)
}

// NominateAuthority proposes a successor authority. Authority only.
func (c *Client) NominateAuthority(ctx context.Context, caller common.Address, nominee common.Address) error {
	req := types.NominateAuthorityRequestV1{
		Caller:  caller.Hex(),
		Nominee: nominee.Hex(),
	}
	var resp map[string]string
	return c.post(ctx, "/admin/authority/nominate", req, &resp)
}

// AcceptAuthority completes an authority handoff. Nominee only.
func (c *Client) AcceptAuthority(ctx context.Context, caller common.Address) error {
	var resp map[string]string
	return c.post(ctx, "/admin/authority/accept", types.AcceptAuthorityRequestV1{Caller: caller.Hex()}, &resp)
}

// Sweep recovers foreign tokens held by the distributor. Authority only.
func (c *Client) Sweep(ctx context.Context, caller common.Address, token common.Address, to common.Address, amount *big.Int) error {
	req := types.SweepRequestV1{
		Caller: caller.Hex(),
		Token:  token.Hex(),
		To:     to.Hex(),
		Amount: amount.String(),
	}
	var resp map[string]string
	return c.post(ctx, "/admin/sweep", req, &resp)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// errorFromResponse turns a non-2xx response back into an engine sentinel
// where the status maps to one, wrapped with the server's message.
func (c *Client) errorFromResponse(resp *http.Response) error {
	var body types.ErrorResponseV1
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	message := body.Error
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusForbidden:
		if strings.Contains(message, "authority") {
			sentinel = claims.ErrUnauthorized
		} else {
			sentinel = claims.ErrInvalidProof
		}
	case http.StatusConflict:
		sentinel = claims.ErrAlreadyClaimed
	case http.StatusServiceUnavailable:
		sentinel = claims.ErrClaimsPaused
	case http.StatusBadGateway:
		sentinel = claims.ErrTransferFailed
	}

	if sentinel != nil {
		return fmt.Errorf("%s (request %s): %w", message, body.RequestID, sentinel)
	}
	return fmt.Errorf("server returned %d: %s (request %s)", resp.StatusCode, message, body.RequestID)
}

func parseDigest(s string) ([32]byte, error) {
	var digest [32]byte
	decoded := common.FromHex(s)
	if len(decoded) != 32 {
		return digest, fmt.Errorf("expected 32-byte digest, got %q", s)
	}
	copy(digest[:], decoded)
	return digest, nil
}
