// Package websocket streams cleaning job progress to browsers.
//
// The Hub owns the client set and fans messages out from a single goroutine.
// Publish never blocks the caller; clients that fall behind are disconnected.
// Handler performs the HTTP upgrade and starts each client's read and write
// pumps.
package websocket
