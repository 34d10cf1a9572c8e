// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client talks to a workspace's Owner over its Unix socket. A single
// Client serializes its own requests onto one connection; concurrent
// callers share the Client's lock.
type Client struct {
	workspacePath string
	logger        *slog.Logger

	mu   sync.Mutex
	conn net.Conn
	dec  *json.Decoder
}

// Dial connects to workspacePath's Owner socket. It returns an error if
// no Owner is currently listening; the caller decides whether to retry,
// wait, or promote itself via BecomeOwner.
func Dial(workspacePath string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{workspacePath: workspacePath, logger: logger}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("unix", SocketPath(c.workspacePath), connectTimeout)
	if err != nil {
		return fmt.Errorf("ipc: dial owner: %w", err)
	}
	c.conn = conn
	c.dec = json.NewDecoder(bufio.NewReader(conn))
	return nil
}

// Call sends one Request and waits for its matching Response. On a
// connection failure, Call attempts exactly one reconnect-and-retry
// before giving up, per §4.H's "single-retry" semantics for transient
// Owner restarts.
func (c *Client) Call(op Op, args any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.callOnce(op, args)
	if err == nil {
		return resultOrError(resp)
	}

	c.logger.Warn("ipc.call_retry", "op", op, "err", err)
	if c.conn != nil {
		c.conn.Close()
	}
	if reErr := c.connect(); reErr != nil {
		return nil, fmt.Errorf("ipc: reconnect after call failure: %w (original: %v)", reErr, err)
	}
	resp, err = c.callOnce(op, args)
	if err != nil {
		return nil, fmt.Errorf("ipc: call failed after retry: %w", err)
	}
	return resultOrError(resp)
}

func (c *Client) callOnce(op Op, args any) (Response, error) {
	req := Request{ID: uuid.NewString(), Op: op, Args: args}
	if err := c.conn.SetDeadline(time.Now().Add(readTimeout)); err != nil {
		return Response{}, fmt.Errorf("ipc: set deadline: %w", err)
	}
	enc := json.NewEncoder(c.conn)
	if err := enc.Encode(req); err != nil {
		return Response{}, fmt.Errorf("ipc: write request: %w", err)
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("ipc: read response: %w", err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("ipc: response id mismatch: sent %s, got %s", req.ID, resp.ID)
	}
	return resp, nil
}

func resultOrError(resp Response) (any, error) {
	if !resp.OK {
		return nil, fmt.Errorf("ipc: owner returned error: %s", resp.Error)
	}
	return resp.Result, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
