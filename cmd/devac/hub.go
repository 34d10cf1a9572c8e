// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/devac-project/devac/pkg/config"
	"github.com/devac-project/devac/pkg/discover"
	devhub "github.com/devac-project/devac/pkg/hub"
	"github.com/devac-project/devac/pkg/ident"
	"github.com/devac-project/devac/pkg/ipc"
	"github.com/devac-project/devac/pkg/metrics"
	"github.com/devac-project/devac/pkg/queryengine"
)

// runHub binds the workspace's Unix socket as Owner if none is listening
// yet, or connects as a Client and prints the Owner's repo list otherwise,
// per §4.H's bind-or-connect startup logic.
func runHub(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("hub", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address to expose Prometheus metrics on (disabled if empty)")
	if err := fs.Parse(args); err != nil {
		return ExitUserError
	}

	root, err := filepath.Abs(*workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac hub: %v\n", err)
		return ExitUserError
	}

	h := devhub.New(root, nil)
	conn, err := ipc.Connect(root, hubHandler(h), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac hub: %v\n", err)
		return ExitInternalErr
	}

	if conn.IsOwner() {
		registerStartupRepos(h, root, globals)

		settings, err := config.LoadSettings(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "devac hub: %v\n", err)
			return ExitInternalErr
		}
		auto := startAutoRefresh(h, root, settings, nil)
		defer auto.stop()

		if *metricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					fmt.Fprintf(os.Stderr, "devac hub: metrics server: %v\n", err)
				}
			}()
		}
		if !globals.Quiet {
			fmt.Printf("devac hub: owner listening at %s\n", ipc.SocketPath(root))
		}
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		if err := conn.Owner.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "devac hub: stop: %v\n", err)
			return ExitInternalErr
		}
		return ExitOK
	}

	defer conn.Client.Close()
	result, err := conn.Client.Call(ipc.OpListRepos, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac hub: %v\n", err)
		return ExitInternalErr
	}
	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		return jsonExit(enc.Encode(result))
	}
	fmt.Printf("devac hub: connected to owner at %s, repos: %v\n", ipc.SocketPath(root), result)
	return ExitOK
}

// registerStartupRepos populates a freshly owned hub's repo catalog: an
// explicit .devac/workspace.yaml repo list takes precedence, since a
// developer who wrote one down is telling us not to guess; otherwise the
// workspace is walked for go.mod roots. Either way, a failure here is
// logged and startup proceeds with whatever repos did resolve — an empty
// hub still answers "register_repo" calls issued later over the socket.
func registerStartupRepos(h *devhub.Hub, root string, globals GlobalFlags) {
	ws, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac hub: workspace config: %v\n", err)
	}
	if ws != nil && len(ws.Repos) > 0 {
		for _, r := range ws.Repos {
			localPath := r.Path
			if !filepath.IsAbs(localPath) {
				localPath = filepath.Join(root, localPath)
			}
			h.RegisterRepo(devhub.RepoRegistration{RepoID: r.RepoID, LocalPath: localPath})
		}
		return
	}

	repos, err := discover.Workspace(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devac hub: discover: %v\n", err)
		return
	}
	for _, r := range repos {
		h.RegisterRepo(devhub.RepoRegistration{RepoID: r.RepoID, LocalPath: r.Path})
	}
	if !globals.Quiet {
		fmt.Printf("devac hub: discovered %d repo(s) under %s\n", len(repos), root)
	}
}

// hubHandler adapts a *hub.Hub to the ipc.HandlerFunc shape, decoding each
// Op's Args into the struct the corresponding Hub method expects.
func hubHandler(h *devhub.Hub) ipc.HandlerFunc {
	return func(op ipc.Op, args any) (any, error) {
		switch op {
		case ipc.OpPing:
			return "pong", nil

		case ipc.OpListRepos:
			return h.ListRepos(), nil

		case ipc.OpRegisterRepo:
			var reg devhub.RepoRegistration
			if err := decodeArgs(args, &reg); err != nil {
				return nil, err
			}
			h.RegisterRepo(reg)
			return nil, nil

		case ipc.OpRefreshRepo:
			var body struct {
				RepoID string `json:"repo_id"`
			}
			if err := decodeArgs(args, &body); err != nil {
				return nil, err
			}
			return h.RefreshRepo(body.RepoID)

		case ipc.OpGetAffected:
			var body struct {
				FilePaths []string `json:"file_paths"`
			}
			if err := decodeArgs(args, &body); err != nil {
				return nil, err
			}
			for i, p := range body.FilePaths {
				body.FilePaths[i] = ident.ResolvePath(p)
			}
			return h.GetAffectedRepos(body.FilePaths), nil

		case ipc.OpAddDiagnostic:
			var d devhub.Diagnostic
			if err := decodeArgs(args, &d); err != nil {
				return nil, err
			}
			h.AddDiagnostic(d)
			return nil, nil

		case ipc.OpGetDiagnostics:
			var filter devhub.DiagnosticFilter
			if err := decodeArgs(args, &filter); err != nil {
				return nil, err
			}
			return h.GetDiagnostics(filter), nil

		case ipc.OpRecordHookValidation:
			var body struct {
				RepoID  string          `json:"repo_id"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := decodeArgs(args, &body); err != nil {
				return nil, err
			}
			return h.RecordValidationHook(body.RepoID, body.Payload)

		case ipc.OpFindSymbol, ipc.OpGetDependencies, ipc.OpGetDependents, ipc.OpGetFileSymbols,
			ipc.OpGetCallGraph, ipc.OpQuerySQL, ipc.OpQueryEffects, ipc.OpRunRules, ipc.OpListRules, ipc.OpGenerateC4:
			return dispatchQuery(queryengine.NewHub(h.LoadTables()), op, args)

		default:
			return nil, fmt.Errorf("devac hub: unsupported op %q", op)
		}
	}
}

// dispatchQuery routes §4.G's federated query operations to an engine
// opened over every registered repo's seed, shared by cmd/devac hub's
// in-process Owner handler.
func dispatchQuery(engine *queryengine.Engine, op ipc.Op, args any) (any, error) {
	switch op {
	case ipc.OpFindSymbol:
		var body struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.FindSymbol(body.Name, body.Kind), nil

	case ipc.OpGetDependencies:
		var body struct {
			EntityID string `json:"entity_id"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.GetDependencies(body.EntityID), nil

	case ipc.OpGetDependents:
		var body struct {
			EntityID string `json:"entity_id"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.GetDependents(body.EntityID), nil

	case ipc.OpGetFileSymbols:
		var body struct {
			FilePath string `json:"file_path"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.GetFileSymbols(ident.ResolvePath(body.FilePath)), nil

	case ipc.OpGetCallGraph:
		var body struct {
			EntityID  string                `json:"entity_id"`
			Direction queryengine.Direction `json:"direction"`
			MaxDepth  int                   `json:"max_depth"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		if body.Direction == "" {
			body.Direction = queryengine.DirectionCallees
		}
		return engine.GetCallGraph(body.EntityID, body.Direction, body.MaxDepth), nil

	case ipc.OpQuerySQL:
		var body struct {
			SQL string `json:"sql"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.QuerySQL(body.SQL)

	case ipc.OpQueryEffects:
		var filter queryengine.QueryEffectsFilter
		if err := decodeArgs(args, &filter); err != nil {
			return nil, err
		}
		return engine.QueryEffects(filter), nil

	case ipc.OpRunRules:
		var body struct {
			Rules []queryengine.Rule `json:"rules"`
		}
		if err := decodeArgs(args, &body); err != nil {
			return nil, err
		}
		return engine.RunRules(body.Rules), nil

	case ipc.OpListRules:
		var filter queryengine.ListRulesFilter
		if err := decodeArgs(args, &filter); err != nil {
			return nil, err
		}
		return engine.ListRules(filter), nil

	case ipc.OpGenerateC4:
		var opts queryengine.C4Options
		if err := decodeArgs(args, &opts); err != nil {
			return nil, err
		}
		return engine.GenerateC4(opts), nil

	default:
		return nil, fmt.Errorf("devac hub: unsupported query op %q", op)
	}
}

// decodeArgs round-trips args (decoded generically by encoding/json as
// map[string]any) through JSON once more into target's concrete type.
func decodeArgs(args any, target any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("devac hub: marshal args: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("devac hub: unmarshal args: %w", err)
	}
	return nil
}
