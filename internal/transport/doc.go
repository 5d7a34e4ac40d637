// Package transport is the HTTP/JSON shim shared by the identity and JSON-RPC endpoints.
//
// A call is a single POST: no retries, no caching. The caller decides what a
// non-200 status means; Decode turns the body into a typed value and reports
// malformed JSON as a *TransportError.
package transport
