package contract

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian-go/ledger"
	"github.com/meridianhq/meridian-go/rpc"
)

func testInterface(methods ...string) *rpc.ContractInterface {
	iface := &rpc.ContractInterface{Address: testContractAddress(), CodeHash: "aa"}
	for _, m := range methods {
		iface.Methods = append(iface.Methods, rpc.MethodSpec{Name: m})
	}
	return iface
}

func TestNewClientValidation(t *testing.T) {
	kp := testKeypair(t)
	gw := &mockGateway{}

	t.Run("valid", func(t *testing.T) {
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)
		assert.Equal(t, testContractAddress(), client.Address())
	})

	t.Run("missing gateway", func(t *testing.T) {
		opts := testClientOptions(gw, kp)
		opts.Gateway = nil
		_, err := NewClient(opts, testContractAddress())

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("malformed address", func(t *testing.T) {
		_, err := NewClient(testClientOptions(gw, kp), "not-an-address")

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "invalid contract address")
	})

	t.Run("account address rejected", func(t *testing.T) {
		_, err := NewClient(testClientOptions(gw, kp), kp.Address())

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestClientLoadInterface(t *testing.T) {
	kp := testKeypair(t)

	t.Run("fetched once and cached", func(t *testing.T) {
		calls := 0
		gw := &mockGateway{}
		gw.ifaceFn = func(address string) (*rpc.ContractInterface, error) {
			calls++
			assert.Equal(t, testContractAddress(), address)
			return testInterface("transfer", "balance"), nil
		}
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)
		assert.Nil(t, client.MethodNames())

		iface, err := client.LoadInterface(context.Background())
		require.NoError(t, err)
		assert.Len(t, iface.Methods, 2)

		_, err = client.LoadInterface(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, []string{"transfer", "balance"}, client.MethodNames())
	})

	t.Run("missing contract", func(t *testing.T) {
		gw := &mockGateway{}
		gw.ifaceFn = func(string) (*rpc.ContractInterface, error) {
			return nil, &rpc.Error{Code: rpc.CodeNotFound, Message: "contract not found"}
		}
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)

		_, err = client.LoadInterface(context.Background())
		require.Error(t, err)

		var notFound *ContractNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, testContractAddress(), notFound.Address)
	})

	t.Run("transport failure", func(t *testing.T) {
		gw := &mockGateway{}
		gw.ifaceFn = func(string) (*rpc.ContractInterface, error) {
			return nil, fmt.Errorf("connection refused")
		}
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)

		_, err = client.LoadInterface(context.Background())
		require.Error(t, err)

		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, "getContractInterface", netErr.Op)
	})
}

func TestClientInvoke(t *testing.T) {
	kp := testKeypair(t)

	t.Run("unknown method", func(t *testing.T) {
		gw := &mockGateway{}
		gw.ifaceFn = func(string) (*rpc.ContractInterface, error) {
			return testInterface("transfer", "balance"), nil
		}
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)

		_, err = client.Invoke(context.Background(), "burn", nil, DefaultMethodOptions())
		require.Error(t, err)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), `no method "burn"`)
		assert.Contains(t, cfgErr.Error(), "transfer, balance")
		assert.Zero(t, gw.simulateCalls)
	})

	t.Run("read-only result without submission", func(t *testing.T) {
		retval := ledger.Value("42")
		gw := &mockGateway{}
		gw.ifaceFn = func(string) (*rpc.ContractInterface, error) {
			return testInterface("balance"), nil
		}
		gw.simulateFn = func(string) (*rpc.SimulateResult, error) {
			return &rpc.SimulateResult{
				LatestLedger:    1200,
				MinResourceFee:  10,
				TransactionData: encodeTransactionData(t, 0),
				ReturnValue:     retval.MarshalBase64(),
			}, nil
		}
		client, err := NewClient(testClientOptions(gw, kp), testContractAddress())
		require.NoError(t, err)

		value, err := client.Invoke(context.Background(), "balance", nil, DefaultMethodOptions())
		require.NoError(t, err)
		assert.Equal(t, retval, value)
		assert.Zero(t, gw.sendCalls)
	})

	t.Run("write flow with wallet signer", func(t *testing.T) {
		retval := ledger.Value("done")
		var walletID ledger.Hash
		for i := range walletID {
			walletID[i] = 0x55
		}
		walletAddr := ledger.NewContractAddress(walletID)
		wallet := &fakeSigner{addr: walletAddr.String()}

		gw := &mockGateway{}
		gw.ifaceFn = func(string) (*rpc.ContractInterface, error) {
			return testInterface("transfer"), nil
		}
		gw.simulateFn = func(string) (*rpc.SimulateResult, error) {
			return &rpc.SimulateResult{
				LatestLedger:    1200,
				MinResourceFee:  250,
				TransactionData: encodeTransactionData(t, 1),
				Auth:            []string{encodeAuthEntry(t, ledger.NewAddressCredentials(walletAddr, 3))},
			}, nil
		}
		gw.sendFn = func(string) (*rpc.SendResult, error) {
			return &rpc.SendResult{Hash: "txhash", Status: rpc.SendStatusPending}, nil
		}
		gw.statusFn = func(string) (*rpc.TransactionStatus, error) {
			return &rpc.TransactionStatus{Status: rpc.StatusSuccess, ReturnValue: retval.MarshalBase64()}, nil
		}

		opts := testClientOptions(gw, kp)
		opts.Signers = []Signer{wallet}
		client, err := NewClient(opts, testContractAddress())
		require.NoError(t, err)

		value, err := client.Invoke(context.Background(),
			"transfer", []ledger.Value{ledger.Value("to")}, DefaultMethodOptions())
		require.NoError(t, err)
		assert.Equal(t, retval, value)
		require.Len(t, wallet.payloads, 1)

		sent := mustEnvelope(t, gw.sentEnvelopes[0])
		auth := sent.Tx.Op.Invoke.Auth
		require.Len(t, auth, 1)
		assert.NotEmpty(t, auth[0].Credentials.Address.Signature)
	})
}

func TestInstallContract(t *testing.T) {
	kp := testKeypair(t)
	code := []byte("meridian contract bytecode")

	t.Run("uploads and returns code hash", func(t *testing.T) {
		gw := &mockGateway{}
		gw.simulateFn = func(envelope string) (*rpc.SimulateResult, error) {
			env := mustEnvelope(t, envelope)
			require.Equal(t, ledger.OperationTypeUpload, env.Tx.Op.Enum)
			assert.Equal(t, code, env.Tx.Op.Upload.Code)
			return &rpc.SimulateResult{
				LatestLedger:    1200,
				MinResourceFee:  400,
				TransactionData: encodeTransactionData(t, 1),
			}, nil
		}
		gw.sendFn = func(string) (*rpc.SendResult, error) {
			return &rpc.SendResult{Hash: "uploadhash", Status: rpc.SendStatusPending}, nil
		}
		gw.statusFn = func(string) (*rpc.TransactionStatus, error) {
			return &rpc.TransactionStatus{Status: rpc.StatusSuccess}, nil
		}

		hash, err := InstallContract(context.Background(), InstallRequest{
			Options: testClientOptions(gw, kp),
			Code:    code,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.Hash(sha256.Sum256(code)), hash)
		assert.Equal(t, 1, gw.sendCalls)
	})

	t.Run("empty code rejected", func(t *testing.T) {
		_, err := InstallContract(context.Background(), InstallRequest{
			Options: testClientOptions(&mockGateway{}, kp),
		})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "contract code is required")
	})
}

func TestDeployContract(t *testing.T) {
	kp := testKeypair(t)
	codeHash := ledger.Hash(sha256.Sum256([]byte("code")))
	networkID := ledger.NetworkID(ledger.TestNetworkPassphrase)
	deployer := ledger.NewAccountAddress(kp.RawPublicKey())

	newDeployGateway := func(t *testing.T) *mockGateway {
		gw := &mockGateway{}
		gw.simulateFn = func(string) (*rpc.SimulateResult, error) {
			return &rpc.SimulateResult{
				LatestLedger:    1200,
				MinResourceFee:  300,
				TransactionData: encodeTransactionData(t, 1),
			}, nil
		}
		gw.sendFn = func(string) (*rpc.SendResult, error) {
			return &rpc.SendResult{Hash: "deployhash", Status: rpc.SendStatusPending}, nil
		}
		gw.statusFn = func(string) (*rpc.TransactionStatus, error) {
			return &rpc.TransactionStatus{Status: rpc.StatusSuccess}, nil
		}
		return gw
	}

	t.Run("explicit salt", func(t *testing.T) {
		gw := newDeployGateway(t)
		salt := ledger.Hash(sha256.Sum256([]byte("my salt")))

		client, err := DeployContract(context.Background(), DeployRequest{
			Options:         testClientOptions(gw, kp),
			CodeHash:        codeHash,
			ConstructorArgs: []ledger.Value{ledger.Value("owner")},
			Salt:            &salt,
		})
		require.NoError(t, err)

		want := ledger.NewContractAddress(ledger.DeriveContractID(networkID, deployer, salt)).String()
		assert.Equal(t, want, client.Address())

		sent := mustEnvelope(t, gw.sentEnvelopes[0])
		require.Equal(t, ledger.OperationTypeCreate, sent.Tx.Op.Enum)
		create := sent.Tx.Op.Create
		assert.Equal(t, deployer, create.Deployer)
		assert.Equal(t, codeHash, create.CodeHash)
		assert.Equal(t, salt, create.Salt)
		assert.Equal(t, []ledger.Value{ledger.Value("owner")}, create.CtorArgs)
	})

	t.Run("default salt derived from source key", func(t *testing.T) {
		gw := newDeployGateway(t)

		client, err := DeployContract(context.Background(), DeployRequest{
			Options:  testClientOptions(gw, kp),
			CodeHash: codeHash,
		})
		require.NoError(t, err)

		sourceKey := kp.RawPublicKey()
		salt := ledger.Hash(sha256.Sum256(sourceKey[:]))
		want := ledger.NewContractAddress(ledger.DeriveContractID(networkID, deployer, salt)).String()
		assert.Equal(t, want, client.Address())
	})

	t.Run("missing code hash rejected", func(t *testing.T) {
		_, err := DeployContract(context.Background(), DeployRequest{
			Options: testClientOptions(&mockGateway{}, kp),
		})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "code hash is required")
	})
}

// TestInvokeOverHTTPGateway drives an invocation through a real rpc.Client
// against a scripted JSON-RPC server, covering the whole stack below the
// facade.
func TestInvokeOverHTTPGateway(t *testing.T) {
	kp := testKeypair(t)
	retval := ledger.Value("pong")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string                 `json:"id"`
			Method string                 `json:"method"`
			Params map[string]interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "getContractInterface":
			result = testInterface("ping")
		case "getAccount":
			result = rpc.Account{Address: req.Params["address"].(string), Sequence: 7}
		case "simulateTransaction":
			envelope, ok := req.Params["transaction"].(string)
			require.True(t, ok)
			env := mustEnvelope(t, envelope)
			assert.Equal(t, "ping", env.Tx.Op.Invoke.Invocation.Function)
			result = rpc.SimulateResult{
				LatestLedger:    900,
				MinResourceFee:  120,
				TransactionData: encodeTransactionData(t, 1),
			}
		case "sendTransaction":
			result = rpc.SendResult{Hash: "httphash", Status: rpc.SendStatusPending}
		case "getTransaction":
			result = rpc.TransactionStatus{Status: rpc.StatusSuccess, ReturnValue: retval.MarshalBase64()}
		default:
			t.Fatalf("unexpected method %q", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}))
	}))
	defer server.Close()

	gateway := rpc.NewClient(server.URL, server.Client())
	client, err := NewClient(ClientOptions{
		Gateway:           gateway,
		NetworkPassphrase: ledger.TestNetworkPassphrase,
		SourceKeypair:     kp,
	}, testContractAddress())
	require.NoError(t, err)

	value, err := client.Invoke(context.Background(), "ping", nil, DefaultMethodOptions())
	require.NoError(t, err)
	assert.Equal(t, retval, value)
}
