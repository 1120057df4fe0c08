// Package serverrun wires configuration, logging, the controller, the
// bookie, and the HTTP server into a running node, and tears them down on
// shutdown signals.
package serverrun
