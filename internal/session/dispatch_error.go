package session

import "fmt"

// DispatchKind classifies provider dispatch failures.
type DispatchKind string

const (
	// DispatchTokenNotRegistered means the device token is no longer known
	// to the provider.
	DispatchTokenNotRegistered DispatchKind = "token-not-registered"
	// DispatchInvalidTokenFormat means the provider rejected the token shape.
	DispatchInvalidTokenFormat DispatchKind = "invalid-token-format"
	// DispatchAuthentication means the session's credential was not accepted
	// for the send itself.
	DispatchAuthentication DispatchKind = "authentication-error"
	// DispatchTimeout means the provider did not answer in time.
	DispatchTimeout DispatchKind = "provider-timeout"
	// DispatchGeneric covers every other provider failure.
	DispatchGeneric DispatchKind = "generic-provider-error"
)

// DispatchError wraps a provider send failure with its classification.
type DispatchError struct {
	Kind DispatchKind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed (%s): %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
