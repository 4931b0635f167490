package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements the Meridian gateway JSON-RPC client.
type Client struct {
	endpoint   string
	httpClient HTTPClient
	logger     zerolog.Logger
}

// NewClient creates a gateway client for the given endpoint. A nil
// httpClient falls back to http.DefaultClient.
func NewClient(endpoint string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     zerolog.Nop(),
	}
}

// WithLogger returns a copy of the client that traces every gateway round
// trip to logger at debug level.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	clone := *c
	clone.logger = logger
	return &clone
}

// Endpoint returns the gateway URL this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SimulateTransaction asks the gateway to execute the envelope against
// current ledger state without submitting it. Simulation failures are
// reported inside the result, not as an error.
func (c *Client) SimulateTransaction(ctx context.Context, envelopeB64 string) (*SimulateResult, error) {
	var out SimulateResult
	params := struct {
		Transaction string `json:"transaction"`
	}{Transaction: envelopeB64}
	if err := c.call(ctx, "simulateTransaction", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTransaction submits a signed envelope to the network.
func (c *Client) SendTransaction(ctx context.Context, envelopeB64 string) (*SendResult, error) {
	var out SendResult
	params := struct {
		Transaction string `json:"transaction"`
	}{Transaction: envelopeB64}
	if err := c.call(ctx, "sendTransaction", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransaction reports the status of a previously submitted transaction.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionStatus, error) {
	var out TransactionStatus
	params := struct {
		Hash string `json:"hash"`
	}{Hash: hash}
	if err := c.call(ctx, "getTransaction", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContractInterface fetches the callable surface of a deployed
// contract. Unknown addresses surface as an *Error with CodeNotFound; use
// IsNotFound to detect them.
func (c *Client) GetContractInterface(ctx context.Context, address string) (*ContractInterface, error) {
	var out ContractInterface
	params := struct {
		Address string `json:"address"`
	}{Address: address}
	if err := c.call(ctx, "getContractInterface", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContractCode fetches installed contract code by its hash.
func (c *Client) GetContractCode(ctx context.Context, hashHex string) ([]byte, error) {
	var out struct {
		Code string `json:"code"`
	}
	params := struct {
		Hash string `json:"hash"`
	}{Hash: hashHex}
	if err := c.call(ctx, "getContractCode", params, &out); err != nil {
		return nil, err
	}
	code, err := base64.StdEncoding.DecodeString(out.Code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode contract code")
	}
	return code, nil
}

// GetAccount fetches an account's current sequence number.
func (c *Client) GetAccount(ctx context.Context, address string) (*Account, error) {
	var out Account
	params := struct {
		Address string `json:"address"`
	}{Address: address}
	if err := c.call(ctx, "getAccount", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLatestLedger fetches the sequence number of the latest closed ledger.
func (c *Client) GetLatestLedger(ctx context.Context) (*LatestLedger, error) {
	var out LatestLedger
	if err := c.call(ctx, "getLatestLedger", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsNotFound reports whether err is a gateway not-found error.
func IsNotFound(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeNotFound
}

// call performs one JSON-RPC round trip. Gateway-reported errors come back
// as *Error; everything else is a wrapped transport or decoding failure.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	c.logger.Debug().Str("method", method).Str("id", req.ID).Msg("gateway request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to send request to gateway")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read gateway response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("gateway returned non-OK status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return errors.Wrap(err, "failed to decode gateway response")
	}
	if rpcResp.Error != nil {
		c.logger.Debug().Str("method", method).Int("code", rpcResp.Error.Code).Msg("gateway error")
		return rpcResp.Error
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return errors.Wrap(err, "failed to decode gateway result")
		}
	}

	c.logger.Debug().Str("method", method).Str("id", req.ID).Msg("gateway response")
	return nil
}
