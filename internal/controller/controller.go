package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"

	logpkg "github.com/tisonkun/morax/pkg/log"
)

// Options configures a controller node.
type Options struct {
	// NodeID identifies this node inside the raft group.
	NodeID string
	// BindAddr is the raft transport listen address.
	BindAddr string
	// DataDir holds the raft log, stable store, and snapshots.
	DataDir string
	// Bootstrap starts a fresh cluster with this node (plus Peers) as voters.
	Bootstrap bool
	// Peers lists additional initial voters as "id=addr" pairs.
	Peers []string
	// ApplyTimeout bounds how long a write waits for a quorum commit.
	ApplyTimeout time.Duration
	// Logger receives controller events. Optional.
	Logger logpkg.Logger

	// HeartbeatTimeout, ElectionTimeout, LeaderLeaseTimeout, and
	// CommitTimeout override raft's defaults when positive; tests shorten
	// them to elect quickly.
	HeartbeatTimeout   time.Duration
	ElectionTimeout    time.Duration
	LeaderLeaseTimeout time.Duration
	CommitTimeout      time.Duration

	// The fields below override the production stores/transport; tests use
	// raft's in-memory implementations.
	Transport     raft.Transport
	LogStore      raft.LogStore
	StableStore   raft.StableStore
	SnapshotStore raft.SnapshotStore
}

// Controller runs one replica of the replicated control plane and exposes
// the client-facing operations. Writes go through the raft commit path;
// reads go through a leader barrier so they never trail an acknowledged
// commit.
type Controller struct {
	raft         *raft.Raft
	fsm          *FSM
	applyTimeout time.Duration
	logger       logpkg.Logger
}

// Open builds the raft node and, when asked, bootstraps the cluster.
func Open(opts Options) (*Controller, error) {
	if opts.NodeID == "" {
		return nil, errors.New("controller: Options.NodeID is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.WithComponent("controller")
	if opts.ApplyTimeout <= 0 {
		opts.ApplyTimeout = 5 * time.Second
	}

	conf := raft.DefaultConfig()
	conf.LocalID = raft.ServerID(opts.NodeID)
	conf.LogOutput = logpkg.Writer(logger)
	if opts.HeartbeatTimeout > 0 {
		conf.HeartbeatTimeout = opts.HeartbeatTimeout
	}
	if opts.ElectionTimeout > 0 {
		conf.ElectionTimeout = opts.ElectionTimeout
	}
	if opts.LeaderLeaseTimeout > 0 {
		conf.LeaderLeaseTimeout = opts.LeaderLeaseTimeout
	}
	if opts.CommitTimeout > 0 {
		conf.CommitTimeout = opts.CommitTimeout
	}

	transport := opts.Transport
	if transport == nil {
		tcp, err := raft.NewTCPTransport(opts.BindAddr, nil, 3, 10*time.Second, conf.LogOutput)
		if err != nil {
			return nil, fmt.Errorf("raft transport on %s: %w", opts.BindAddr, err)
		}
		transport = tcp
	}

	logStore, stableStore := opts.LogStore, opts.StableStore
	if logStore == nil || stableStore == nil {
		if opts.DataDir == "" {
			return nil, errors.New("controller: Options.DataDir is required")
		}
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, err
		}
		bolt, err := raftboltdb.NewBoltStore(filepath.Join(opts.DataDir, "raft.db"))
		if err != nil {
			return nil, fmt.Errorf("open raft store: %w", err)
		}
		logStore, stableStore = bolt, bolt
	}

	snapshotStore := opts.SnapshotStore
	if snapshotStore == nil {
		snaps, err := raft.NewFileSnapshotStore(opts.DataDir, 2, conf.LogOutput)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		snapshotStore = snaps
	}

	fsm := NewFSM(logger)
	node, err := raft.NewRaft(conf, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("start raft: %w", err)
	}

	if opts.Bootstrap {
		servers := []raft.Server{{ID: conf.LocalID, Address: transport.LocalAddr()}}
		for _, peer := range opts.Peers {
			id, addr, ok := strings.Cut(peer, "=")
			if !ok {
				return nil, fmt.Errorf("controller: malformed peer %q, want id=addr", peer)
			}
			if raft.ServerID(id) == conf.LocalID {
				continue
			}
			servers = append(servers, raft.Server{ID: raft.ServerID(id), Address: raft.ServerAddress(addr)})
		}
		fut := node.BootstrapCluster(raft.Configuration{Servers: servers})
		if err := fut.Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
			return nil, fmt.Errorf("bootstrap cluster: %w", err)
		}
	}

	return &Controller{
		raft:         node,
		fsm:          fsm,
		applyTimeout: opts.ApplyTimeout,
		logger:       logger,
	}, nil
}

// RegisterBookie adds a storage node to the replicated membership registry.
// Registration is idempotent: re-adding reports alreadyExisted=true.
func (c *Controller) RegisterBookie(ctx context.Context, service string) (bool, error) {
	resp, err := c.apply(ctx, &RegisterBookieRequest{Service: service})
	if err != nil {
		return false, err
	}
	reply, ok := resp.(*RegisterBookieReply)
	if !ok {
		return false, fmt.Errorf("controller: unexpected reply %T for RegisterBookie", resp)
	}
	return reply.AlreadyExisted, nil
}

// NextLedgerID allocates a fresh, globally unique, strictly increasing
// ledger id from the replicated counter.
func (c *Controller) NextLedgerID(ctx context.Context) (int64, error) {
	resp, err := c.apply(ctx, &NextLedgerIDRequest{})
	if err != nil {
		return 0, err
	}
	reply, ok := resp.(*NextLedgerIDReply)
	if !ok {
		return 0, fmt.Errorf("controller: unexpected reply %T for NextLedgerId", resp)
	}
	return reply.LedgerID, nil
}

// ListBookies returns the membership set. The read runs after a leader
// barrier, so it reflects every commit acknowledged before the call:
// linearizable, never bounded-stale. Followers fail with ErrNotLeader.
func (c *Controller) ListBookies(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.raft.Barrier(c.applyTimeout).Error(); err != nil {
		return nil, c.mapRaftError(err)
	}
	reply, err := c.fsm.Query(&ListBookiesRequest{})
	if err != nil {
		return nil, err
	}
	return reply.Services, nil
}

// apply submits one request through the commit path and unwraps the reply.
func (c *Controller) apply(ctx context.Context, req Request) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fut := c.raft.Apply(EncodeRequest(req), c.applyTimeout)
	if err := fut.Error(); err != nil {
		return nil, c.mapRaftError(err)
	}
	resp := fut.Response()
	if err, ok := resp.(error); ok {
		return nil, err
	}
	return resp, nil
}

func (c *Controller) mapRaftError(err error) error {
	if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) {
		leader, _ := c.raft.LeaderWithID()
		if leader != "" {
			return fmt.Errorf("%w (leader is %s)", ErrNotLeader, leader)
		}
		return ErrNotLeader
	}
	return err
}

// IsLeader reports whether this node currently leads the quorum.
func (c *Controller) IsLeader() bool {
	return c.raft.State() == raft.Leader
}

// LeaderAddr returns the current leader's transport address, or empty when
// no leader is known.
func (c *Controller) LeaderAddr() string {
	addr, _ := c.raft.LeaderWithID()
	return string(addr)
}

// WaitForLeader blocks until the cluster elects a leader or ctx expires.
func (c *Controller) WaitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if addr, _ := c.raft.LeaderWithID(); addr != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("controller: no leader elected: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Shutdown stops the raft node. Pending writes fail with an explicit error.
func (c *Controller) Shutdown() error {
	return c.raft.Shutdown().Error()
}
