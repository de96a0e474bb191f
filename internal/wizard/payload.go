package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Payload is the flat record handed to the submission layer. Exactly one of
// ServerKey and ServerPassword is non-nil when produced by Form.ToPayload.
type Payload struct {
	ProviderToken string `json:"providerToken"`
	ProviderEmail string `json:"providerEmail"`
	ProviderZone  string `json:"providerZone"`
	ProviderDNS   string `json:"providerDns"`

	ServerAddress    string     `json:"serverAddress"`
	ServerPort       int        `json:"serverPort"`
	ServerUsername   string     `json:"serverUsername"`
	ServerAuthMethod AuthMethod `json:"serverAuthMethod"`
	ServerKey        *string    `json:"serverKey"`
	ServerPassword   *string    `json:"serverPassword"`
}

// SelectedSecret returns the secret matching ServerAuthMethod, or "" if it is
// nil.
func (p Payload) SelectedSecret() string {
	if p.ServerAuthMethod == Key {
		return deref(p.ServerKey)
	}
	return deref(p.ServerPassword)
}

// SecretIssues reports a secret that is set although ServerAuthMethod does
// not select it. Form.ToPayload never produces one; hand-edited files can.
func (p Payload) SecretIssues() []Issue {
	if p.ServerAuthMethod == Key && p.ServerPassword != nil {
		return []Issue{{Field: FieldServerPassword, Message: "must be null with Key authentication"}}
	}
	if p.ServerAuthMethod != Key && p.ServerKey != nil {
		return []Issue{{Field: FieldServerKey, Message: "must be null with Password authentication"}}
	}
	return nil
}

// Encode renders the payload as JSON.
func (p Payload) Encode(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(p, "", "  ")
	}
	return json.Marshal(p)
}

// DecodePayload parses a single JSON payload. Unknown fields and anything
// after the closing brace are rejected, so a misspelled key or a second
// object does not slip through.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, errors.New("decode payload: unexpected data after payload object")
	}
	return p, nil
}
