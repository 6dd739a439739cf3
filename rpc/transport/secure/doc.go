// Package secure upgrades raw connections to TLS (1.2 or newer) for the tcp and unix
// transports. A ClientConnector verifies the server against a CA and domain and can
// present a client identity, a ServerConnector presents the server identity and can
// require client certificates signed by a given CA (mutual TLS).
package secure
