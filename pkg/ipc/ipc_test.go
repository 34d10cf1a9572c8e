// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(op Op, args any) (any, error) {
	if op == OpPing {
		return "pong", nil
	}
	return nil, fmt.Errorf("unsupported op %q", op)
}

func TestOwnerClient_RoundTrip(t *testing.T) {
	workspace := t.TempDir()

	owner, err := BecomeOwner(workspace, echoHandler, nil)
	require.NoError(t, err)
	go owner.Serve()
	defer owner.Stop()

	client, err := Dial(workspace, nil)
	require.NoError(t, err)
	defer client.Close()

	result, err := client.Call(OpPing, nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestBecomeOwner_SecondAttemptFails(t *testing.T) {
	workspace := t.TempDir()

	owner, err := BecomeOwner(workspace, echoHandler, nil)
	require.NoError(t, err)
	defer owner.Stop()
	go owner.Serve()

	_, err = BecomeOwner(workspace, echoHandler, nil)
	require.Error(t, err)
}

func TestConnect_FirstCallerBecomesOwner(t *testing.T) {
	workspace := t.TempDir()

	conn, err := Connect(workspace, echoHandler, nil)
	require.NoError(t, err)
	require.True(t, conn.IsOwner())
	defer conn.Owner.Stop()

	time.Sleep(10 * time.Millisecond) // let Serve start accepting

	conn2, err := Connect(workspace, echoHandler, nil)
	require.NoError(t, err)
	require.False(t, conn2.IsOwner())
	defer conn2.Client.Close()

	result, err := conn2.Client.Call(OpPing, nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestBecomeOwner_RemovesStaleSocket(t *testing.T) {
	workspace := t.TempDir()
	path := SocketPath(workspace)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644)) // leftover from a crashed owner, nothing listening

	owner, err := BecomeOwner(workspace, echoHandler, nil)
	require.NoError(t, err)
	defer owner.Stop()
	assert.Equal(t, path, owner.socketPath)
}
