// Package session owns an exchange login session.
//
// A Manager performs the certificate login handshake, holds the resulting
// session token, and runs one background keep-alive loop per authenticated
// session:
//   - Login (re)authenticates and restarts the loop; logins are serialized so
//     at most one loop is ever active
//   - the loop probes immediately, then every KeepAliveInterval (default 2h)
//   - a failed probe is logged and handed to the ProbeHandler; the loop keeps
//     running and a later Login restores a healthy session
//   - Logout and Close cancel the loop and wait for it to exit
//
// The token is guarded by a RWMutex: API calls take the read side, Login,
// Logout and Close take the write side.
package session
