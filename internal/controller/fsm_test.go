package controller

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hashicorp/raft"
)

func applyRequest(t *testing.T, f *FSM, req Request) interface{} {
	t.Helper()
	return f.Apply(&raft.Log{Data: EncodeRequest(req)})
}

func TestApplyRegisterBookie(t *testing.T) {
	f := NewFSM(nil)

	resp := applyRequest(t, f, &RegisterBookieRequest{Service: "10.0.0.1:3181"})
	reply, ok := resp.(*RegisterBookieReply)
	if !ok {
		t.Fatalf("unexpected response %T: %v", resp, resp)
	}
	if reply.AlreadyExisted {
		t.Fatalf("first registration should not exist")
	}

	resp = applyRequest(t, f, &RegisterBookieRequest{Service: "10.0.0.1:3181"})
	if !resp.(*RegisterBookieReply).AlreadyExisted {
		t.Fatalf("second registration should report existing")
	}
}

func TestApplyNextLedgerID(t *testing.T) {
	f := NewFSM(nil)
	first := applyRequest(t, f, &NextLedgerIDRequest{}).(*NextLedgerIDReply).LedgerID
	second := applyRequest(t, f, &NextLedgerIDRequest{}).(*NextLedgerIDReply).LedgerID
	if second <= first {
		t.Fatalf("ids must increase: %d then %d", first, second)
	}
}

func TestApplyRejectsUndecodableRecord(t *testing.T) {
	f := NewFSM(nil)
	resp := f.Apply(&raft.Log{Data: []byte{0xff}})
	err, ok := resp.(error)
	if !ok || !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("expected decode failure, got %v", resp)
	}
	if len(f.state.ListBookies()) != 0 {
		t.Fatalf("decode failure must not mutate state")
	}
}

func TestApplyRejectsReadOnlyRequest(t *testing.T) {
	f := NewFSM(nil)
	resp := applyRequest(t, f, &ListBookiesRequest{})
	err, ok := resp.(error)
	if !ok || !errors.Is(err, ErrUnsupportedRequest) {
		t.Fatalf("expected ErrUnsupportedRequest, got %v", resp)
	}
}

func TestQueryRejectsWriteRequest(t *testing.T) {
	f := NewFSM(nil)
	if _, err := f.Query(&RegisterBookieRequest{Service: "a:1"}); !errors.Is(err, ErrUnsupportedRequest) {
		t.Fatalf("expected ErrUnsupportedRequest, got %v", err)
	}
}

func TestSnapshotRestorePreservesCounter(t *testing.T) {
	f := NewFSM(nil)
	applyRequest(t, f, &RegisterBookieRequest{Service: "a:1"})
	applyRequest(t, f, &NextLedgerIDRequest{})
	applyRequest(t, f, &NextLedgerIDRequest{})

	snap, err := f.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	data := snap.(*fsmSnapshot).data

	restored := NewFSM(nil)
	if err := restored.Restore(io.NopCloser(strings.NewReader(string(data)))); err != nil {
		t.Fatalf("restore: %v", err)
	}
	reply, err := restored.Query(&ListBookiesRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(reply.Services) != 1 || reply.Services[0] != "a:1" {
		t.Fatalf("membership lost: %v", reply.Services)
	}
	next := applyRequest(t, restored, &NextLedgerIDRequest{}).(*NextLedgerIDReply).LedgerID
	if next != 3 {
		t.Fatalf("counter must resume past allocated ids: got %d want 3", next)
	}
}
