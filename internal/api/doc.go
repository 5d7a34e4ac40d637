// Package api provides the exchange JSON-RPC client.
//
// Endpoints:
//   - Accounts: https://api.betfair.com/exchange/account/json-rpc/v1
//   - Betting:  https://api.betfair.com/exchange/betting/json-rpc/v1
//
// Every call is a single POST of a {jsonrpc, method, params, id} envelope
// carrying X-Application and X-Authentication from a TokenSource. Error
// objects in the response come back as *RPCError.
package api
