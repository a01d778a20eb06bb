package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type RequestMethod struct {
	Name    string
	Timeout time.Duration
}

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint   `json:"id"`

	timeout time.Duration
}

type RPCError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

var jsonRPCVersion = "2.0"

const (
	BlockLatest  = "latest"
	BlockPending = "pending"

	defaultRequestTimeout = time.Second * 10
)

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

type EthereumClientConfig struct {
	BaseUrl string
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 30,
	}

	l.Sugar().Debugw("Creating new Ethereum client", zap.String("url", cfg.BaseUrl))

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) BaseUrl() string {
	return c.clientConfig.BaseUrl
}

func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	return callAndParse(ctx, c, AccountsRequest(1), RPCMethod_accounts)
}

func (c *Client) NetVersion(ctx context.Context) (string, error) {
	return callAndParse(ctx, c, NetVersionRequest(1), RPCMethod_netVersion)
}

func (c *Client) ChainId(ctx context.Context) (*big.Int, error) {
	id, err := callAndParse(ctx, c, ChainIdRequest(1), RPCMethod_chainId)
	if err != nil {
		return nil, err
	}
	return id.BigInt(), nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := callAndParse(ctx, c, GasPriceRequest(1), RPCMethod_gasPrice)
	if err != nil {
		return nil, err
	}
	return price.BigInt(), nil
}

func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	return callAndParse(ctx, c, BlockNumberRequest(1), RPCMethod_blockNumber)
}

func (c *Client) GetTransactionCount(ctx context.Context, address common.Address, block string) (uint64, error) {
	return callAndParse(ctx, c, GetTransactionCountRequest(address, block, 1), RPCMethod_getTransactionCount)
}

// EthCall executes a read-only call against the latest block and returns the raw return data.
func (c *Client) EthCall(ctx context.Context, args *TransactionArgs) ([]byte, error) {
	return callAndParse(ctx, c, CallRequest(args, BlockLatest, 1), RPCMethod_call)
}

// SendTransaction asks the node to sign and submit the transaction with one of its unlocked accounts.
func (c *Client) SendTransaction(ctx context.Context, args *TransactionArgs) (common.Hash, error) {
	return callAndParse(ctx, c, SendTransactionRequest(args, 1), RPCMethod_sendTransaction)
}

func (c *Client) SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error) {
	return callAndParse(ctx, c, SendRawTransactionRequest(rawTx, 1), RPCMethod_sendRawTransaction)
}

// GetTransactionReceipt returns nil without an error while the transaction is still pending.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*EthereumTransactionReceipt, error) {
	return callAndParse(ctx, c, GetTransactionReceiptRequest(txHash, 1), RPCMethod_getTransactionReceipt)
}

// WaitForReceipt polls for the receipt of a submitted transaction every interval until it is mined,
// the timeout elapses or ctx is done. onPoll, when set, is invoked after every pending poll.
func (c *Client) WaitForReceipt(
	ctx context.Context,
	txHash string,
	interval time.Duration,
	timeout time.Duration,
	onPoll func(),
) (*EthereumTransactionReceipt, error) {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.GetTransactionReceipt(ctx, txHash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("timed out waiting for receipt of transaction %s", txHash)
			}
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		if onPoll != nil {
			onPoll()
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt of transaction %s", txHash)
		case <-ticker.C:
		}
	}
}

func callAndParse[T any](ctx context.Context, c *Client, rpcRequest *RPCRequest, handler *RequestResponseHandler[T]) (T, error) {
	var empty T
	res, err := c.Call(ctx, rpcRequest)
	if err != nil {
		return empty, err
	}
	parsed, err := handler.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse response",
			zap.String("method", rpcRequest.Method),
			zap.Error(err),
			zap.String("raw response", string(res.Result)),
		)
		return empty, err
	}
	return parsed, nil
}

// Call performs a single JSON-RPC request. Node-side errors are returned as *RPCError.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, err
	}
	c.Logger.Sugar().Debugw("Request body", zap.String("requestBody", string(requestBody)))

	timeout := rpcRequest.timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if destination.Error != nil {
		c.Logger.Sugar().Debugw("Received error response",
			zap.String("method", rpcRequest.Method),
			zap.Int64("code", destination.Error.Code),
			zap.String("message", destination.Error.Message),
		)
		return nil, destination.Error
	}

	return destination, nil
}
