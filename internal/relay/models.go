package relay

// RelayRequest is the parsed inbound payload. The firebaseConfig field
// carries the encrypted credential blob; the rest describe the one
// notification to dispatch.
type RelayRequest struct {
	FirebaseConfig string `json:"firebaseConfig" binding:"required"`
	Token          string `json:"token" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

// FailureKind is the stable machine-readable failure classification
// returned to the HTTP layer.
type FailureKind string

const (
	// FailureDecryption covers every decrypt-stage failure: bad base64,
	// wrong key, corrupt ciphertext, or non-JSON plaintext. The stages are
	// deliberately indistinguishable to the caller.
	FailureDecryption FailureKind = "decryption-error"
	// FailureInvalidCredential means structural validation of the decrypted
	// credential failed; ValidationErrors itemizes the reasons.
	FailureInvalidCredential FailureKind = "invalid-credential"
	// FailureSessionInit means the provider rejected the credential before
	// a session existed.
	FailureSessionInit FailureKind = "session-init-error"
	// FailureTokenNotRegistered means the device token is gone.
	FailureTokenNotRegistered FailureKind = "token-not-registered"
	// FailureInvalidTokenFormat means the provider rejected the token shape.
	FailureInvalidTokenFormat FailureKind = "invalid-token-format"
	// FailureAuthentication means the provider refused the send itself.
	FailureAuthentication FailureKind = "authentication-error"
	// FailureProviderTimeout means the provider did not answer in time.
	FailureProviderTimeout FailureKind = "provider-timeout"
	// FailureProvider covers every other provider failure.
	FailureProvider FailureKind = "provider-error"
)

// RelayResult is the caller-facing outcome of one relay attempt.
// Either Success with MessageID/DurationMs is set, or Kind/Detail are.
type RelayResult struct {
	Success          bool        `json:"success"`
	MessageID        string      `json:"message_id,omitempty"`
	DurationMs       int64       `json:"duration_ms,omitempty"`
	Kind             FailureKind `json:"kind,omitempty"`
	Detail           string      `json:"detail,omitempty"`
	ValidationErrors []string    `json:"validation_errors,omitempty"`
}

func failure(kind FailureKind, detail string) RelayResult {
	return RelayResult{Kind: kind, Detail: detail}
}
