// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ipc

import (
	"log/slog"
)

// Connection is the result of Connect: either this process became the
// Owner (Owner non-nil, it must call Owner.Serve itself and keep Owner
// alive for the workspace's lifetime) or it is a Client of some other
// process's Owner (Client non-nil).
type Connection struct {
	Owner  *Owner
	Client *Client
}

// IsOwner reports whether this process won the Owner role.
func (c Connection) IsOwner() bool { return c.Owner != nil }

// Connect implements §4.H's bind-or-connect startup logic: try to connect
// to an existing Owner first; if none is listening, promote this process
// to Owner by binding the socket. handler answers Ops for the case this
// process becomes the Owner.
func Connect(workspacePath string, handler HandlerFunc, logger *slog.Logger) (Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client, err := Dial(workspacePath, logger); err == nil {
		return Connection{Client: client}, nil
	}

	owner, err := BecomeOwner(workspacePath, handler, logger)
	if err != nil {
		// Another process won the race between our failed Dial and our
		// BecomeOwner attempt; fall back to connecting to it.
		client, dialErr := Dial(workspacePath, logger)
		if dialErr != nil {
			return Connection{}, err
		}
		return Connection{Client: client}, nil
	}
	go owner.Serve()
	return Connection{Owner: owner}, nil
}

// Reconnect is called by a Client that has detected its Owner went away
// (e.g. a Call returned a connection error even after its internal
// retry). It attempts exactly one promotion: try to become the new Owner;
// if that fails (someone else already promoted), dial them instead.
func Reconnect(workspacePath string, handler HandlerFunc, logger *slog.Logger) (Connection, error) {
	return Connect(workspacePath, handler, logger)
}
