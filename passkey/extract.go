package passkey

import (
	"encoding/binary"
)

// Authenticator data layout: 32-byte rpIdHash, 1 flags byte, 4-byte sign
// counter, then for attested credentials a 16-byte AAGUID, a 2-byte
// big-endian credential id length, the credential id, and the COSE key.
const (
	authDataHeaderLen = 37
	aaguidLen         = 16
	coordLen          = 32
)

// CBOR byte sequences inside a canonically encoded COSE EC2 P-256 key.
// coseKeyPrefix covers the map head and the fixed leading pairs
// {1: 2, 3: -7, -1: 1} up to and including the X coordinate label -2 with
// its 32-byte string header. xCoordLabel and yCoordLabel are the headers
// of the -2 and -3 entries alone.
var (
	coseKeyPrefix = []byte{0xA5, 0x01, 0x02, 0x03, 0x26, 0x20, 0x01, 0x21, 0x58, 0x20}
	xCoordLabel   = []byte{0x21, 0x58, 0x20}
	yCoordLabel   = []byte{0x22, 0x58, 0x20}
)

// ExtractPublicKey recovers the credential's uncompressed P-256 public key
// (0x04 || X || Y, 65 bytes) from a registration response.
//
// Sources are tried in order:
//
//  1. The publicKey field. Its decoded bytes are returned verbatim, with
//     no length or prefix validation: some clients supply keys in formats
//     this package does not interpret, and callers that received a key
//     directly get exactly what the client sent.
//  2. The authenticator data, skipping the header, AAGUID, and credential
//     id before scanning for the coordinate labels.
//  3. The attestation object, scanning for a canonical COSE EC2 P-256 key.
//
// A source that is present but yields no coordinates falls through to the
// next. When no source yields a key the result is nil with a nil error.
// Undecodable base64 in a present field is a *ParseError.
func ExtractPublicKey(resp *CredentialResponse) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}

	if resp.PublicKey != "" {
		raw, err := decodeB64URL(resp.PublicKey)
		if err != nil {
			return nil, &ParseError{Subject: "publicKey field", Err: err}
		}
		return raw, nil
	}

	if resp.AuthenticatorData != "" {
		data, err := decodeB64URL(resp.AuthenticatorData)
		if err != nil {
			return nil, &ParseError{Subject: "authenticator data", Err: err}
		}
		if key := keyFromAuthenticatorData(data); key != nil {
			return key, nil
		}
	}

	if resp.AttestationObject != "" {
		data, err := decodeB64URL(resp.AttestationObject)
		if err != nil {
			return nil, &ParseError{Subject: "attestation object", Err: err}
		}
		if key := keyFromAttestationObject(data); key != nil {
			return key, nil
		}
	}

	return nil, nil
}

// keyFromAuthenticatorData walks the attested-credential layout far enough
// to know where the COSE key starts, then scans for the coordinate labels.
func keyFromAuthenticatorData(data []byte) []byte {
	if len(data) < authDataHeaderLen+aaguidLen+2 {
		return nil
	}
	credIDLen := int(binary.BigEndian.Uint16(data[authDataHeaderLen+aaguidLen : authDataHeaderLen+aaguidLen+2]))
	coseStart := authDataHeaderLen + aaguidLen + 2 + credIDLen

	xAt := IndexFrom(data, xCoordLabel, coseStart)
	if xAt < 0 {
		return nil
	}
	xStart := xAt + len(xCoordLabel)
	if xStart+coordLen > len(data) {
		return nil
	}

	yAt := IndexFrom(data, yCoordLabel, xStart+coordLen)
	if yAt < 0 {
		return nil
	}
	yStart := yAt + len(yCoordLabel)
	if yStart+coordLen > len(data) {
		return nil
	}

	return assembleUncompressed(data[xStart:xStart+coordLen], data[yStart:yStart+coordLen])
}

// keyFromAttestationObject scans the CBOR attestation object for a
// canonical COSE EC2 P-256 key and lifts the coordinates out of it.
func keyFromAttestationObject(data []byte) []byte {
	at := IndexFrom(data, coseKeyPrefix, 0)
	if at < 0 {
		return nil
	}
	xStart := at + len(coseKeyPrefix)
	yLabelStart := xStart + coordLen
	yStart := yLabelStart + len(yCoordLabel)
	if yStart+coordLen > len(data) {
		return nil
	}
	if IndexFrom(data[yLabelStart:yStart], yCoordLabel, 0) != 0 {
		return nil
	}

	return assembleUncompressed(data[xStart:xStart+coordLen], data[yStart:yStart+coordLen])
}

func assembleUncompressed(x, y []byte) []byte {
	out := make([]byte, 0, 1+2*coordLen)
	out = append(out, 0x04)
	out = append(out, x...)
	return append(out, y...)
}
