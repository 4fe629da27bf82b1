package net

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"block-explorer/common"
)

type Config struct {
	Endpoint string `toml:"endpoint"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// ErrHeightOutOfRange reports that the node has no block at the requested
// height, which is the normal end condition when walking the chain upward.
var ErrHeightOutOfRange = errors.New("block height out of range")

// bitcoind answers getblockhash past the tip with RPC_INVALID_PARAMETER.
const rpcCodeInvalidParameter = -8

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int32         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Client talks to a bitcoind-compatible JSON-RPC endpoint.
type Client struct {
	http    *resty.Client
	url     string
	idCount int32
}

func NewClient(cfg *Config) *Client {
	url := cfg.Endpoint
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	httpClient := resty.New().SetTimeout(30 * time.Second)
	if cfg.User != "" {
		httpClient.SetBasicAuth(cfg.User, cfg.Password)
	}

	return &Client{
		http: httpClient,
		url:  url,
	}
}

// FetchBlock returns the serialized block at the given height, or
// ErrHeightOutOfRange once the chain is exhausted.
func (c *Client) FetchBlock(height uint32) ([]byte, error) {
	hash, err := c.GetBlockHash(height)
	if err != nil {
		return nil, err
	}
	return c.GetRawBlock(hash)
}

func (c *Client) GetBlockHash(height uint32) (string, error) {
	result, rpcErr, err := c.call("getblockhash", height)
	if err != nil {
		return "", err
	}
	if rpcErr != nil {
		if rpcErr.Code == rpcCodeInvalidParameter {
			return "", ErrHeightOutOfRange
		}
		return "", common.RemoteConnection("getblockhash", fmt.Errorf("node error [%d]: %s", rpcErr.Code, rpcErr.Message))
	}

	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", common.RemoteConnection("getblockhash", err)
	}
	return hash, nil
}

// GetRawBlock fetches a block with verbosity 0, i.e. hex-encoded raw bytes.
func (c *Client) GetRawBlock(hash string) ([]byte, error) {
	result, rpcErr, err := c.call("getblock", hash, 0)
	if err != nil {
		return nil, err
	}
	if rpcErr != nil {
		return nil, common.RemoteConnection("getblock", fmt.Errorf("node error [%d]: %s", rpcErr.Code, rpcErr.Message))
	}

	var blockHex string
	if err := json.Unmarshal(result, &blockHex); err != nil {
		return nil, common.RemoteConnection("getblock", err)
	}
	raw, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, common.RemoteConnection("getblock", err)
	}
	return raw, nil
}

func (c *Client) call(method string, params ...interface{}) (json.RawMessage, *rpcError, error) {
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "1.0",
		ID:      atomic.AddInt32(&c.idCount, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, nil, common.RemoteConnection(method, err)
	}

	resp, err := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.url)
	if err != nil {
		return nil, nil, common.RemoteConnection("call "+method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return nil, nil, common.RemoteConnection("decode "+method+" response", err)
	}
	return rpcResp.Result, rpcResp.Error, nil
}
