package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/viper"
	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/internal/logger"
	"go.uber.org/zap"
)

func GetConfig() *config.Config {
	viper.Reset()
	config.InitViper()
	return config.NewConfig()
}

func GetLogger() *zap.Logger {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	return l
}

type RpcMockError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// RpcHandlerFunc receives the raw params of a JSON-RPC request and returns either a result
// value or an error object.
type RpcHandlerFunc func(params []json.RawMessage) (interface{}, *RpcMockError)

type rpcMockRequest struct {
	ID     uint              `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// RpcMock is an httpmock backed JSON-RPC node that dispatches on the request method.
type RpcMock struct {
	Url       string
	Transport *httpmock.MockTransport

	mu       sync.Mutex
	handlers map[string]RpcHandlerFunc
	calls    map[string][][]json.RawMessage
}

func NewRpcMock(url string) *RpcMock {
	m := &RpcMock{
		Url:       url,
		Transport: httpmock.NewMockTransport(),
		handlers:  make(map[string]RpcHandlerFunc),
		calls:     make(map[string][][]json.RawMessage),
	}
	m.Transport.RegisterResponder(http.MethodPost, url, m.respond)
	return m
}

func (m *RpcMock) HttpClient() *http.Client {
	return &http.Client{Transport: m.Transport}
}

func (m *RpcMock) Handle(method string, fn RpcHandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = fn
}

// Result registers a fixed result for method.
func (m *RpcMock) Result(method string, result interface{}) {
	m.Handle(method, func(_ []json.RawMessage) (interface{}, *RpcMockError) {
		return result, nil
	})
}

// Calls returns the params of every request received for method, in order.
func (m *RpcMock) Calls(method string) [][]json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *RpcMock) respond(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	rpcReq := &rpcMockRequest{}
	if err := json.Unmarshal(body, rpcReq); err != nil {
		return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
	}

	m.mu.Lock()
	m.calls[rpcReq.Method] = append(m.calls[rpcReq.Method], rpcReq.Params)
	handler, ok := m.handlers[rpcReq.Method]
	m.mu.Unlock()

	res := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      rpcReq.ID,
	}
	if !ok {
		res["error"] = &RpcMockError{Code: -32601, Message: "the method " + rpcReq.Method + " does not exist/is not available"}
		return httpmock.NewJsonResponse(http.StatusOK, res)
	}
	result, rpcErr := handler(rpcReq.Params)
	if rpcErr != nil {
		res["error"] = rpcErr
	} else {
		res["result"] = result
	}
	return httpmock.NewJsonResponse(http.StatusOK, res)
}

// GetDbConfigFromEnv returns the postgres settings of the test environment, or nil when
// AIRDROP_TEST_DB_HOST is not set.
func GetDbConfigFromEnv() *config.DatabaseConfig {
	host := os.Getenv("AIRDROP_TEST_DB_HOST")
	if host == "" {
		return nil
	}
	port, err := strconv.Atoi(os.Getenv("AIRDROP_TEST_DB_PORT"))
	if err != nil {
		port = 5432
	}
	return &config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("AIRDROP_TEST_DB_USER"),
		Password: os.Getenv("AIRDROP_TEST_DB_PASSWORD"),
		DbName:   "postgres",
	}
}

func GenerateTestDbName() string {
	return fmt.Sprintf("test_%s", strings.ReplaceAll(uuid.New().String(), "-", ""))
}
