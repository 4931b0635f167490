package passkey

import "fmt"

// ParseError reports malformed WebAuthn payloads or signature material:
// base64 that does not decode, DER that does not parse, or integers that
// cannot fit the fixed-width signature form.
type ParseError struct {
	// Subject names what was being parsed.
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Subject, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
