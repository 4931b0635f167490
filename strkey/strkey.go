// Package strkey encodes and decodes Meridian textual keys.
//
// A strkey is the unpadded base32 encoding of a version byte, the raw
// 32-byte payload, and a 2-byte CRC16-XModem checksum appended in
// little-endian order. The version byte determines the leading character
// of the encoded form: account keys render as M..., contract ids as C...,
// and seeds as S.... Every key family encodes to exactly 56 characters.
//
// # Usage
//
//	addr, err := strkey.Encode(strkey.VersionAccount, publicKey)
//	raw, err := strkey.Decode(strkey.VersionAccount, "MB7X...")
package strkey

import (
	"encoding/base32"
	"encoding/binary"
	"fmt"
)

// VersionByte selects the key family a strkey encodes.
type VersionByte byte

const (
	// VersionAccount is the version byte for ed25519 account public keys (M...).
	VersionAccount VersionByte = 12 << 3
	// VersionContract is the version byte for contract ids (C...).
	VersionContract VersionByte = 2 << 3
	// VersionSeed is the version byte for ed25519 account seeds (S...).
	VersionSeed VersionByte = 18 << 3
)

// payloadLen is the raw key length carried by every supported version.
const payloadLen = 32

// encodedLen is the length of every valid encoded strkey.
const encodedLen = 56

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode renders a 32-byte payload under the given version byte.
func Encode(version VersionByte, payload []byte) (string, error) {
	switch version {
	case VersionAccount, VersionContract, VersionSeed:
	default:
		return "", fmt.Errorf("unsupported version byte %#x", byte(version))
	}
	if len(payload) != payloadLen {
		return "", fmt.Errorf("invalid payload length: expected %d bytes, got %d", payloadLen, len(payload))
	}

	raw := make([]byte, 0, payloadLen+3)
	raw = append(raw, byte(version))
	raw = append(raw, payload...)
	raw = binary.LittleEndian.AppendUint16(raw, checksum(raw))
	return encoding.EncodeToString(raw), nil
}

// MustEncode is Encode for payloads known to be well formed. It panics on error.
func MustEncode(version VersionByte, payload []byte) string {
	s, err := Encode(version, payload)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses s, verifies its checksum, and confirms it carries the
// expected version byte. It returns the raw 32-byte payload.
func Decode(expected VersionByte, s string) ([]byte, error) {
	raw, version, err := decodeRaw(s)
	if err != nil {
		return nil, err
	}
	if version != expected {
		return nil, fmt.Errorf("unexpected version byte: got %#x, want %#x", byte(version), byte(expected))
	}
	return raw, nil
}

// Version reports the version byte of s without requiring the caller to
// know the key family in advance. The checksum is still verified.
func Version(s string) (VersionByte, error) {
	_, version, err := decodeRaw(s)
	return version, err
}

// IsValid reports whether s is a well-formed strkey of the given version.
func IsValid(version VersionByte, s string) bool {
	_, err := Decode(version, s)
	return err == nil
}

func decodeRaw(s string) ([]byte, VersionByte, error) {
	if len(s) != encodedLen {
		return nil, 0, fmt.Errorf("invalid strkey length: expected %d characters, got %d", encodedLen, len(s))
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode base32: %w", err)
	}

	body := raw[:len(raw)-2]
	want := binary.LittleEndian.Uint16(raw[len(raw)-2:])
	if got := checksum(body); got != want {
		return nil, 0, fmt.Errorf("checksum mismatch: computed %#04x, encoded %#04x", got, want)
	}

	version := VersionByte(body[0])
	switch version {
	case VersionAccount, VersionContract, VersionSeed:
	default:
		return nil, 0, fmt.Errorf("unsupported version byte %#x", body[0])
	}
	return body[1:], version, nil
}

// checksum computes CRC16-XModem (polynomial 0x1021, zero initial value)
// over data.
func checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
