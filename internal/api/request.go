package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rickgao/betfair-exchange/internal/transport"
)

// ErrEmptyResult is returned by lookups that need at least one result.
var ErrEmptyResult = errors.New("empty result")

// RPCError is a JSON-RPC error object returned by the exchange, or a non-200
// response that carried none.
type RPCError struct {
	Method     string
	StatusCode int
	Code       int
	Message    string
	// ErrorCode is the exchange exception code, e.g. INVALID_SESSION_INFORMATION.
	ErrorCode string
}

func (e *RPCError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s: rpc error %d: %s (%s)", e.Method, e.Code, e.Message, e.ErrorCode)
	}
	if e.Code == 0 && e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Method, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcErrorObject `json:"error"`
	ID      int64           `json:"id"`
}

type rpcErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		APINGException        *exceptionData `json:"APINGException"`
		AccountAPINGException *exceptionData `json:"AccountAPINGException"`
	} `json:"data"`
}

type exceptionData struct {
	ErrorCode    string `json:"errorCode"`
	ErrorDetails string `json:"errorDetails"`
	RequestUUID  string `json:"requestUUID"`
}

func (o *rpcErrorObject) toError(method string, status int) *RPCError {
	e := &RPCError{
		Method:     method,
		StatusCode: status,
		Code:       o.Code,
		Message:    o.Message,
	}
	switch {
	case o.Data.APINGException != nil:
		e.ErrorCode = o.Data.APINGException.ErrorCode
	case o.Data.AccountAPINGException != nil:
		e.ErrorCode = o.Data.AccountAPINGException.ErrorCode
	}
	return e
}

// call sends one JSON-RPC request to url and decodes its result into result.
func (c *Client) call(ctx context.Context, url, method string, params, result any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	header.Set("X-Application", c.tokens.AppKey())
	header.Set("X-Authentication", token)

	resp, err := c.http.Post(ctx, url, header, body)
	if err != nil {
		return err
	}

	var envelope rpcResponse
	if err := resp.Decode(&envelope); err != nil {
		if !resp.OK() {
			return &RPCError{Method: method, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return err
	}

	if envelope.Error != nil {
		rpcErr := envelope.Error.toError(method, resp.StatusCode)
		c.logger.Warn("rpc call failed",
			"method", method,
			"code", rpcErr.Code,
			"error_code", rpcErr.ErrorCode,
		)
		return rpcErr
	}
	if !resp.OK() {
		return &RPCError{Method: method, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if result == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return &transport.TransportError{Op: "decode", URL: url, Err: err}
	}
	return nil
}
