package types

// HTTP wire types for the claim service. Digests and proof elements travel as
// 0x-prefixed hex strings; amounts travel as decimal strings so callers are
// never exposed to JSON number precision limits.

// ClaimRequestV1 is the body of POST /claim.
type ClaimRequestV1 struct {
	Claimant string   `json:"claimant"`
	Amount   string   `json:"amount"`
	Proof    []string `json:"proof"`
}

// ClaimResponseV1 is returned on a successful claim.
type ClaimResponseV1 struct {
	Claimant string `json:"claimant"`
	Amount   string `json:"amount"`
	Root     string `json:"root"`
}

// RootResponseV1 is returned by GET /root.
type RootResponseV1 struct {
	Root string `json:"root"`
}

// ClaimStatusResponseV1 is returned by GET /claims/{address}.
type ClaimStatusResponseV1 struct {
	Claimant string `json:"claimant"`
	Claimed  bool   `json:"claimed"`
}

// RotateRootRequestV1 is the body of POST /admin/root.
type RotateRootRequestV1 struct {
	Caller  string `json:"caller"`
	NewRoot string `json:"new_root"`
}

// PauseRequestV1 is the body of POST /admin/pause and /admin/unpause.
type PauseRequestV1 struct {
	Caller string `json:"caller"`
}

// NominateAuthorityRequestV1 is the body of POST /admin/authority/nominate.
type NominateAuthorityRequestV1 struct {
	Caller  string `json:"caller"`
	Nominee string `json:"nominee"`
}

// AcceptAuthorityRequestV1 is the body of POST /admin/authority/accept.
type AcceptAuthorityRequestV1 struct {
	Caller string `json:"caller"`
}

// SweepRequestV1 is the body of POST /admin/sweep. Token names the foreign
// ERC20 contract whose balance is being recovered.
type SweepRequestV1 struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// ErrorResponseV1 is the body of any non-2xx response.
type ErrorResponseV1 struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
