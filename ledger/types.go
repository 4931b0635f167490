// Package ledger defines the Meridian transaction wire model.
//
// Every structure in this package has a deterministic Borsh byte encoding.
// Transaction and authorization-entry digests are computed over those bytes
// together with the network id, so any two parties serializing the same
// structure arrive at the same hash. Values passed into and returned from
// contract invocations are opaque byte blobs at this layer; interpreting
// them is the caller's concern.
//
// # Structure
//
// An Envelope carries one Transaction plus its decorated signatures. A
// Transaction holds exactly one Operation (invoke, upload, create, or
// restore) and, once simulated, the resource declaration in
// TransactionData. Authorization entries ride inside invoke operations and
// are signed independently of the envelope.
package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/meridianhq/meridian-go/strkey"
)

// Network passphrases for the public Meridian deployments. The passphrase
// feeds NetworkID, which binds every signature to one network.
const (
	PublicNetworkPassphrase = "Meridian Public Network ; June 2024"
	TestNetworkPassphrase   = "Meridian Test Network ; June 2024"
)

// Hash is a 32-byte SHA-256 digest.
type Hash [32]byte

// Hex returns the lowercase hex encoding of the hash.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex parses a 64-character hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("failed to decode hash hex: %w", err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid hash length: expected %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// Value is an opaque ledger value blob. Contract arguments, return values,
// and embedded credential signatures all travel as Values.
type Value []byte

// Address variant discriminants.
const (
	AddressTypeAccount borsh.Enum = iota
	AddressTypeContract
)

// Address identifies an account (ed25519 public key) or a contract (id
// hash) on the ledger.
type Address struct {
	Enum     borsh.Enum `borsh_enum:"true"`
	Account  Hash       `borsh:"account"`
	Contract Hash       `borsh:"contract"`
}

// NewAccountAddress builds an account address from a raw ed25519 public key.
func NewAccountAddress(key [32]byte) Address {
	return Address{Enum: AddressTypeAccount, Account: key}
}

// NewContractAddress builds a contract address from a contract id.
func NewContractAddress(id [32]byte) Address {
	return Address{Enum: AddressTypeContract, Contract: id}
}

// ParseAddress parses a strkey-encoded account (M...) or contract (C...)
// address.
func ParseAddress(s string) (Address, error) {
	version, err := strkey.Version(s)
	if err != nil {
		return Address{}, fmt.Errorf("failed to parse address: %w", err)
	}
	raw, err := strkey.Decode(version, s)
	if err != nil {
		return Address{}, fmt.Errorf("failed to parse address: %w", err)
	}

	var key Hash
	copy(key[:], raw)
	switch version {
	case strkey.VersionAccount:
		return NewAccountAddress(key), nil
	case strkey.VersionContract:
		return NewContractAddress(key), nil
	default:
		return Address{}, fmt.Errorf("address %s is not an account or contract key", s)
	}
}

// String renders the address in its strkey form.
func (a Address) String() string {
	switch a.Enum {
	case AddressTypeAccount:
		return strkey.MustEncode(strkey.VersionAccount, a.Account[:])
	case AddressTypeContract:
		return strkey.MustEncode(strkey.VersionContract, a.Contract[:])
	default:
		return fmt.Sprintf("invalid-address(%d)", uint8(a.Enum))
	}
}

// Key returns the raw 32-byte key of whichever variant is active.
func (a Address) Key() Hash {
	if a.Enum == AddressTypeContract {
		return a.Contract
	}
	return a.Account
}

// Raw returns the variant byte followed by the raw key. This is the form
// bound into contract-id preimages.
func (a Address) Raw() []byte {
	out := make([]byte, 0, 33)
	out = append(out, byte(a.Enum))
	key := a.Key()
	return append(out, key[:]...)
}

// IsContract reports whether the address names a contract.
func (a Address) IsContract() bool {
	return a.Enum == AddressTypeContract
}

// Invocation describes a host-function call: the target contract, the
// function name, ordered opaque arguments, and any nested calls the
// contract is authorized to make on the caller's behalf.
type Invocation struct {
	Contract Address      `borsh:"contract"`
	Function string       `borsh:"function"`
	Args     []Value      `borsh:"args"`
	Sub      []Invocation `borsh:"sub"`
}

// Credentials variant discriminants.
const (
	CredentialsTypeSource borsh.Enum = iota
	CredentialsTypeAddress
)

// SourceCredentials marks an authorization entry as covered by the
// envelope signature of the transaction source account.
type SourceCredentials struct{}

// AddressCredentials authorize an entry on behalf of an arbitrary address.
// The signature field starts empty and is filled in place during signing;
// the expiration ledger bounds how long the signature stays valid.
type AddressCredentials struct {
	Address                   Address `borsh:"address"`
	Nonce                     int64   `borsh:"nonce"`
	SignatureExpirationLedger uint32  `borsh:"signature_expiration_ledger"`
	Signature                 Value   `borsh:"signature"`
}

// Credentials selects how an authorization entry is authorized.
type Credentials struct {
	Enum    borsh.Enum         `borsh_enum:"true"`
	Source  SourceCredentials  `borsh:"source"`
	Address AddressCredentials `borsh:"address"`
}

// NewSourceCredentials builds credentials covered by the envelope signature.
func NewSourceCredentials() Credentials {
	return Credentials{Enum: CredentialsTypeSource}
}

// NewAddressCredentials builds unsigned address credentials for addr.
func NewAddressCredentials(addr Address, nonce int64) Credentials {
	return Credentials{
		Enum:    CredentialsTypeAddress,
		Address: AddressCredentials{Address: addr, Nonce: nonce},
	}
}

// AuthorizationEntry binds credentials to the invocation tree they
// authorize. Entries returned by simulation are unsigned; signing mutates
// the address credentials in place.
type AuthorizationEntry struct {
	Credentials Credentials `borsh:"credentials"`
	Invocation  Invocation  `borsh:"invocation"`
}

// Operation variant discriminants.
const (
	OperationTypeInvoke borsh.Enum = iota
	OperationTypeUpload
	OperationTypeCreate
	OperationTypeRestore
)

// InvokeContractOp calls a contract function.
type InvokeContractOp struct {
	Invocation Invocation           `borsh:"invocation"`
	Auth       []AuthorizationEntry `borsh:"auth"`
}

// UploadContractCodeOp installs contract code on the ledger. The ledger
// addresses installed code by its SHA-256 hash.
type UploadContractCodeOp struct {
	Code []byte `borsh:"code"`
}

// CreateContractOp instantiates a contract from installed code. The new
// contract id is derived from the deployer address and salt.
type CreateContractOp struct {
	Deployer Address `borsh:"deployer"`
	CodeHash Hash    `borsh:"code_hash"`
	Salt     Hash    `borsh:"salt"`
	CtorArgs []Value `borsh:"ctor_args"`
}

// RestoreFootprintOp restores archived ledger entries. The entries to
// restore are the read-write footprint of the transaction data.
type RestoreFootprintOp struct{}

// Operation is the single action a transaction performs.
type Operation struct {
	Enum    borsh.Enum           `borsh_enum:"true"`
	Invoke  InvokeContractOp     `borsh:"invoke"`
	Upload  UploadContractCodeOp `borsh:"upload"`
	Create  CreateContractOp     `borsh:"create"`
	Restore RestoreFootprintOp   `borsh:"restore"`
}

// NewInvokeOperation builds an invoke operation for the given call.
func NewInvokeOperation(invocation Invocation, auth []AuthorizationEntry) Operation {
	return Operation{Enum: OperationTypeInvoke, Invoke: InvokeContractOp{Invocation: invocation, Auth: auth}}
}

// NewUploadOperation builds a code upload operation.
func NewUploadOperation(code []byte) Operation {
	return Operation{Enum: OperationTypeUpload, Upload: UploadContractCodeOp{Code: code}}
}

// NewCreateOperation builds a contract creation operation.
func NewCreateOperation(deployer Address, codeHash, salt Hash, ctorArgs []Value) Operation {
	return Operation{Enum: OperationTypeCreate, Create: CreateContractOp{
		Deployer: deployer,
		CodeHash: codeHash,
		Salt:     salt,
		CtorArgs: ctorArgs,
	}}
}

// NewRestoreOperation builds a footprint restore operation.
func NewRestoreOperation() Operation {
	return Operation{Enum: OperationTypeRestore}
}

// LedgerKey variant discriminants.
const (
	LedgerKeyTypeData borsh.Enum = iota
	LedgerKeyTypeCode
)

// ContractDataKey addresses one stored value of one contract.
type ContractDataKey struct {
	Contract Address `borsh:"contract"`
	Key      Value   `borsh:"key"`
}

// ContractCodeKey addresses installed contract code by hash.
type ContractCodeKey struct {
	Hash Hash `borsh:"hash"`
}

// LedgerKey names one ledger entry, either contract data or contract code.
type LedgerKey struct {
	Enum borsh.Enum      `borsh_enum:"true"`
	Data ContractDataKey `borsh:"data"`
	Code ContractCodeKey `borsh:"code"`
}

// String renders the key for diagnostics.
func (k LedgerKey) String() string {
	switch k.Enum {
	case LedgerKeyTypeData:
		return fmt.Sprintf("data(%s, %x)", k.Data.Contract, []byte(k.Data.Key))
	case LedgerKeyTypeCode:
		return fmt.Sprintf("code(%s)", k.Code.Hash.Hex())
	default:
		return fmt.Sprintf("invalid-key(%d)", uint8(k.Enum))
	}
}

// Footprint declares the ledger entries a transaction touches.
type Footprint struct {
	ReadOnly  []LedgerKey `borsh:"read_only"`
	ReadWrite []LedgerKey `borsh:"read_write"`
}

// TransactionData declares the resources a transaction consumes. Simulation
// produces it; the gateway rejects transactions whose declaration is too
// small.
type TransactionData struct {
	Footprint    Footprint `borsh:"footprint"`
	Instructions uint32    `borsh:"instructions"`
	ReadBytes    uint32    `borsh:"read_bytes"`
	WriteBytes   uint32    `borsh:"write_bytes"`
	ResourceFee  int64     `borsh:"resource_fee"`
}

// Transaction is one ledger action from one source account.
type Transaction struct {
	Source   Address          `borsh:"source"`
	Fee      uint32           `borsh:"fee"`
	Sequence int64            `borsh:"sequence"`
	Op       Operation        `borsh:"op"`
	Data     *TransactionData `borsh:"data"`
}

// DecoratedSignature pairs a signature with the last four bytes of the
// signing key, letting validators pick the right key without trying all of
// them.
type DecoratedSignature struct {
	Hint      [4]byte `borsh:"hint"`
	Signature []byte  `borsh:"signature"`
}

// Envelope is a transaction plus the signatures that authorize it.
type Envelope struct {
	Tx         Transaction          `borsh:"tx"`
	Signatures []DecoratedSignature `borsh:"signatures"`
}
