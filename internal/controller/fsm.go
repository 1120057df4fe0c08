package controller

import (
	"fmt"
	"io"

	"github.com/hashicorp/raft"

	logpkg "github.com/tisonkun/morax/pkg/log"
)

// FSM adapts State to raft's state machine interface. Apply serves the write
// path, Query the read-only path; each rejects the other's request kinds as
// an operation error rather than silently ignoring them.
type FSM struct {
	state  *State
	logger logpkg.Logger
}

// NewFSM returns an FSM over fresh state.
func NewFSM(logger logpkg.Logger) *FSM {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &FSM{state: NewState(), logger: logger.WithComponent("controller-fsm")}
}

// Apply executes one committed log record. Errors are returned as the
// response value, per the raft library's convention; a decode failure leaves
// state untouched.
func (f *FSM) Apply(record *raft.Log) interface{} {
	req, err := DecodeRequest(record.Data)
	if err != nil {
		f.logger.Warn("rejecting undecodable transaction", logpkg.Err(err))
		return err
	}
	switch req := req.(type) {
	case *RegisterBookieRequest:
		alreadyExisted := f.state.RegisterBookie(req.Service)
		if !alreadyExisted {
			f.logger.Info("bookie registered", logpkg.Str("service", req.Service))
		}
		return &RegisterBookieReply{AlreadyExisted: alreadyExisted}
	case *NextLedgerIDRequest:
		return &NextLedgerIDReply{LedgerID: f.state.NextLedgerID()}
	default:
		return fmt.Errorf("%w: %v on the write path", ErrUnsupportedRequest, req.Type())
	}
}

// Query serves the read-only path against local state. The caller is
// responsible for the linearizability of the read (leader barrier).
func (f *FSM) Query(req Request) (*ListBookiesReply, error) {
	switch req.(type) {
	case *ListBookiesRequest:
		return &ListBookiesReply{Services: f.state.ListBookies()}, nil
	default:
		return nil, fmt.Errorf("%w: %v on the read-only path", ErrUnsupportedRequest, req.Type())
	}
}

// Snapshot captures the full state for log compaction.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	data, err := f.state.encode()
	if err != nil {
		return nil, err
	}
	return &fsmSnapshot{data: data}, nil
}

// Restore replaces state from a snapshot produced by Snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return f.state.restore(data)
}

type fsmSnapshot struct {
	data []byte
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := sink.Write(s.data); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}
