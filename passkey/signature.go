package passkey

import (
	"crypto/elliptic"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// ecdsaSignature mirrors the ASN.1 SEQUENCE layout of a DER-encoded ECDSA
// signature.
type ecdsaSignature struct {
	R, S *big.Int
}

// CompactSignatureLen is the byte length of every compact signature.
const CompactSignatureLen = 64

var (
	p256Order     = elliptic.P256().Params().N
	p256HalfOrder = new(big.Int).Rsh(p256Order, 1)
)

// CompactSignature converts a DER-encoded ECDSA P-256 signature into the
// fixed 64-byte r||s form embedded in credential signatures.
//
// DER integers are variable width: a value whose high bit is set carries a
// leading zero byte, and small values encode in fewer than 32 bytes. Each
// integer is normalized to exactly 32 bytes. The s half is additionally
// canonicalized to the low half of the curve order (s > n/2 becomes n-s),
// so the ledger never sees two encodings of the same signature.
func CompactSignature(der []byte) ([]byte, error) {
	var sig ecdsaSignature
	rest, err := asn1.Unmarshal(der, &sig)
	if err != nil {
		return nil, &ParseError{Subject: "DER signature", Err: err}
	}
	if len(rest) != 0 {
		return nil, &ParseError{Subject: "DER signature", Err: fmt.Errorf("%d trailing bytes after SEQUENCE", len(rest))}
	}
	if sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return nil, &ParseError{Subject: "DER signature", Err: fmt.Errorf("non-positive integer component")}
	}
	if sig.R.BitLen() > 8*coordLen || sig.S.BitLen() > 8*coordLen {
		return nil, &ParseError{Subject: "DER signature", Err: fmt.Errorf("integer component exceeds %d bytes", coordLen)}
	}

	s := sig.S
	if s.Cmp(p256HalfOrder) > 0 {
		s = new(big.Int).Sub(p256Order, s)
	}

	out := make([]byte, CompactSignatureLen)
	sig.R.FillBytes(out[:coordLen])
	s.FillBytes(out[coordLen:])
	return out, nil
}
