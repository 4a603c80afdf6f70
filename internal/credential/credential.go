// Package credential defines the decrypted trust credential and its
// structural validation.
package credential

import "encoding/json"

// TypeServiceAccount is the only credential type the relay accepts.
const TypeServiceAccount = "service_account"

// Credential is a decrypted service-account credential. It exists only for
// the duration of a single relay request and must never be persisted.
//
// Raw holds the exact decrypted JSON document so the provider SDK receives
// the credential byte-for-byte, including provider-specific extras the
// relay does not model. Fields is the parsed view used for validation.
type Credential struct {
	Raw    []byte
	Fields map[string]interface{}
}

// Parse builds a Credential from a decrypted JSON document. A document
// whose top level is not an object yields nil Fields, which the validator
// reports as a structural error.
func Parse(raw []byte) Credential {
	cred := Credential{Raw: raw}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err == nil {
		cred.Fields = fields
	}

	return cred
}

// stringField returns the named field when present and a string.
func (c Credential) stringField(name string) string {
	if c.Fields == nil {
		return ""
	}
	value, _ := c.Fields[name].(string)
	return value
}

// Type returns the credential type field.
func (c Credential) Type() string { return c.stringField("type") }

// ProjectID returns the provider project identifier.
func (c Credential) ProjectID() string { return c.stringField("project_id") }

// PrivateKey returns the PEM-encoded private key material.
// Never log or echo this value.
func (c Credential) PrivateKey() string { return c.stringField("private_key") }

// ClientEmail returns the service account email.
func (c Credential) ClientEmail() string { return c.stringField("client_email") }
