package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvocation() Invocation {
	return Invocation{
		Contract: NewContractAddress(fixedHash(0x21)),
		Function: "transfer",
		Args:     []Value{Value([]byte{0x01}), Value([]byte{0x02, 0x03})},
		Sub: []Invocation{{
			Contract: NewContractAddress(fixedHash(0x22)),
			Function: "burn",
		}},
	}
}

func sampleAuthEntry() AuthorizationEntry {
	return AuthorizationEntry{
		Credentials: NewAddressCredentials(NewContractAddress(fixedHash(0x31)), 7),
		Invocation:  sampleInvocation(),
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
	}{
		{
			name: "invoke with auth",
			op:   NewInvokeOperation(sampleInvocation(), []AuthorizationEntry{sampleAuthEntry()}),
		},
		{
			name: "upload",
			op:   NewUploadOperation([]byte{0x00, 0x61, 0x73, 0x6D}),
		},
		{
			name: "create",
			op:   NewCreateOperation(NewAccountAddress(fixedHash(0x41)), fixedHash(0x42), fixedHash(0x43), []Value{Value([]byte{0x09})}),
		},
		{
			name: "restore",
			op:   NewRestoreOperation(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{
				Tx: Transaction{
					Source:   NewAccountAddress(fixedHash(0x01)),
					Fee:      100,
					Sequence: 42,
					Op:       tt.op,
				},
				Signatures: []DecoratedSignature{
					{Hint: [4]byte{1, 2, 3, 4}, Signature: []byte{0xFF, 0xFE}},
				},
			}

			b64, err := env.MarshalBase64()
			require.NoError(t, err)

			decoded, err := EnvelopeFromBase64(b64)
			require.NoError(t, err)
			assert.Equal(t, env, decoded)
		})
	}
}

func TestEnvelopeRoundTripWithTransactionData(t *testing.T) {
	env := &Envelope{
		Tx: Transaction{
			Source:   NewAccountAddress(fixedHash(0x01)),
			Fee:      100,
			Sequence: 9,
			Op:       NewInvokeOperation(sampleInvocation(), nil),
			Data: &TransactionData{
				Footprint: Footprint{
					ReadOnly: []LedgerKey{{Enum: LedgerKeyTypeCode, Code: ContractCodeKey{Hash: fixedHash(0x51)}}},
					ReadWrite: []LedgerKey{{Enum: LedgerKeyTypeData, Data: ContractDataKey{
						Contract: NewContractAddress(fixedHash(0x52)),
						Key:      Value([]byte{0x07}),
					}}},
				},
				Instructions: 1_000_000,
				ReadBytes:    512,
				WriteBytes:   128,
				ResourceFee:  4321,
			},
		},
	}

	b64, err := env.MarshalBase64()
	require.NoError(t, err)

	decoded, err := EnvelopeFromBase64(b64)
	require.NoError(t, err)
	require.NotNil(t, decoded.Tx.Data)
	assert.Equal(t, env, decoded)
}

func TestAuthorizationEntryRoundTripPreservesSignature(t *testing.T) {
	entry := sampleAuthEntry()
	entry.Credentials.Address.SignatureExpirationLedger = 12345
	entry.Credentials.Address.Signature = Value(make([]byte, 64))

	b64, err := entry.MarshalBase64()
	require.NoError(t, err)

	decoded, err := AuthorizationEntryFromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, uint32(12345), decoded.Credentials.Address.SignatureExpirationLedger)
	assert.Len(t, []byte(decoded.Credentials.Address.Signature), 64)
	assert.Equal(t, &entry, decoded)
}

func TestTransactionDataRoundTrip(t *testing.T) {
	data := &TransactionData{
		Footprint: Footprint{
			ReadWrite: []LedgerKey{{Enum: LedgerKeyTypeCode, Code: ContractCodeKey{Hash: fixedHash(0x61)}}},
		},
		Instructions: 7,
		ResourceFee:  100,
	}

	b64, err := data.MarshalBase64()
	require.NoError(t, err)

	decoded, err := TransactionDataFromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := EnvelopeFromBase64("%%% not base64 %%%")
	require.Error(t, err)

	_, err = AuthorizationEntryFromBase64("%%% not base64 %%%")
	require.Error(t, err)

	_, err = TransactionDataFromBase64("%%% not base64 %%%")
	require.Error(t, err)
}
