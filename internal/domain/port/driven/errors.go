// Package driven defines secondary port interfaces for external adapters.
package driven

import "errors"

// Sentinel errors shared by the driven adapters. Adapters wrap them with %w so
// callers classify failures with errors.Is.
var (
	// ErrConfigMissing indicates the API key or username has not been set.
	ErrConfigMissing = errors.New("required settings missing")

	// ErrAuth indicates the remote rejected the supplied credentials.
	ErrAuth = errors.New("authentication rejected")

	// ErrNetwork indicates a transport failure or a server-side outage.
	ErrNetwork = errors.New("network failure")

	// ErrProtocol indicates a response that could not be parsed into the expected shape.
	ErrProtocol = errors.New("unexpected response")

	// ErrRebuild indicates a restart request failed.
	ErrRebuild = errors.New("rebuild failed")

	// ErrUnknownUser indicates the configured username does not exist upstream.
	ErrUnknownUser = errors.New("unknown user")

	// ErrEncryptionKeyNotSet indicates an encrypted value was read without CFSTATUS_SECRET_KEY.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CFSTATUS_SECRET_KEY")

	// ErrEncryptionKeyInvalid indicates CFSTATUS_SECRET_KEY is not a usable AES-256 key.
	ErrEncryptionKeyInvalid = errors.New("encryption key must decode to 32 bytes")
)
