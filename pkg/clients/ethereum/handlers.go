package ethereum

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ResponseParserFunc[T any] func(res json.RawMessage) (T, error)

type RequestResponseHandler[T any] struct {
	RequestMethod  *RequestMethod
	ResponseParser ResponseParserFunc[T]
}

func isNullResult(res json.RawMessage) bool {
	return len(res) == 0 || string(res) == "null"
}

func parseQuantity(res json.RawMessage) (uint64, error) {
	var q hexutil.Uint64
	if err := json.Unmarshal(res, &q); err != nil {
		return 0, err
	}
	return uint64(q), nil
}

func parseBigQuantity(res json.RawMessage) (*EthereumBigQuantity, error) {
	q := &EthereumBigQuantity{}
	if err := json.Unmarshal(res, q); err != nil {
		return nil, err
	}
	return q, nil
}

func parseHash(res json.RawMessage) (common.Hash, error) {
	var h common.Hash
	if err := json.Unmarshal(res, &h); err != nil {
		return common.Hash{}, err
	}
	return h, nil
}

var (
	RPCMethod_accounts = &RequestResponseHandler[[]common.Address]{
		RequestMethod: &RequestMethod{
			Name:    "eth_accounts",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) ([]common.Address, error) {
			accounts := make([]common.Address, 0)
			if isNullResult(res) {
				return accounts, nil
			}
			if err := json.Unmarshal(res, &accounts); err != nil {
				return nil, err
			}
			return accounts, nil
		},
	}
	RPCMethod_netVersion = &RequestResponseHandler[string]{
		RequestMethod: &RequestMethod{
			Name:    "net_version",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (string, error) {
			return strings.ReplaceAll(string(res), "\"", ""), nil
		},
	}
	RPCMethod_chainId = &RequestResponseHandler[*EthereumBigQuantity]{
		RequestMethod: &RequestMethod{
			Name:    "eth_chainId",
			Timeout: time.Second * 5,
		},
		ResponseParser: parseBigQuantity,
	}
	RPCMethod_gasPrice = &RequestResponseHandler[*EthereumBigQuantity]{
		RequestMethod: &RequestMethod{
			Name:    "eth_gasPrice",
			Timeout: time.Second * 5,
		},
		ResponseParser: parseBigQuantity,
	}
	RPCMethod_blockNumber = &RequestResponseHandler[uint64]{
		RequestMethod: &RequestMethod{
			Name:    "eth_blockNumber",
			Timeout: time.Second * 5,
		},
		ResponseParser: parseQuantity,
	}
	RPCMethod_getTransactionCount = &RequestResponseHandler[uint64]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getTransactionCount",
			Timeout: time.Second * 5,
		},
		ResponseParser: parseQuantity,
	}
	RPCMethod_call = &RequestResponseHandler[[]byte]{
		RequestMethod: &RequestMethod{
			Name:    "eth_call",
			Timeout: time.Second * 10,
		},
		ResponseParser: func(res json.RawMessage) ([]byte, error) {
			var data hexutil.Bytes
			if err := json.Unmarshal(res, &data); err != nil {
				return nil, err
			}
			return data, nil
		},
	}
	RPCMethod_sendTransaction = &RequestResponseHandler[common.Hash]{
		RequestMethod: &RequestMethod{
			Name:    "eth_sendTransaction",
			Timeout: time.Second * 30,
		},
		ResponseParser: parseHash,
	}
	RPCMethod_sendRawTransaction = &RequestResponseHandler[common.Hash]{
		RequestMethod: &RequestMethod{
			Name:    "eth_sendRawTransaction",
			Timeout: time.Second * 30,
		},
		ResponseParser: parseHash,
	}
	// A pending transaction has a null receipt, which parses to nil.
	RPCMethod_getTransactionReceipt = &RequestResponseHandler[*EthereumTransactionReceipt]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getTransactionReceipt",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (*EthereumTransactionReceipt, error) {
			if isNullResult(res) {
				return nil, nil
			}
			receipt := &EthereumTransactionReceipt{}

			if err := json.Unmarshal(res, receipt); err != nil {
				return nil, err
			}
			return receipt, nil
		},
	}
)

func newRequest(method *RequestMethod, params []interface{}, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method.Name,
		Params:  params,
		ID:      id,
		timeout: method.Timeout,
	}
}

func AccountsRequest(id uint) *RPCRequest {
	return newRequest(RPCMethod_accounts.RequestMethod, []interface{}{}, id)
}

func NetVersionRequest(id uint) *RPCRequest {
	return newRequest(RPCMethod_netVersion.RequestMethod, []interface{}{}, id)
}

func ChainIdRequest(id uint) *RPCRequest {
	return newRequest(RPCMethod_chainId.RequestMethod, []interface{}{}, id)
}

func GasPriceRequest(id uint) *RPCRequest {
	return newRequest(RPCMethod_gasPrice.RequestMethod, []interface{}{}, id)
}

func BlockNumberRequest(id uint) *RPCRequest {
	return newRequest(RPCMethod_blockNumber.RequestMethod, []interface{}{}, id)
}

// GetTransactionCountRequest builds an eth_getTransactionCount request. Block is a hex block
// number or one of "latest", "pending", "earliest".
func GetTransactionCountRequest(address common.Address, block string, id uint) *RPCRequest {
	return newRequest(RPCMethod_getTransactionCount.RequestMethod, []interface{}{address, block}, id)
}

func CallRequest(args *TransactionArgs, block string, id uint) *RPCRequest {
	return newRequest(RPCMethod_call.RequestMethod, []interface{}{args, block}, id)
}

func SendTransactionRequest(args *TransactionArgs, id uint) *RPCRequest {
	return newRequest(RPCMethod_sendTransaction.RequestMethod, []interface{}{args}, id)
}

func SendRawTransactionRequest(rawTx []byte, id uint) *RPCRequest {
	return newRequest(RPCMethod_sendRawTransaction.RequestMethod, []interface{}{hexutil.Encode(rawTx)}, id)
}

func GetTransactionReceiptRequest(txHash string, id uint) *RPCRequest {
	return newRequest(RPCMethod_getTransactionReceipt.RequestMethod, []interface{}{txHash}, id)
}
