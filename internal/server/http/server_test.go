package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/raft"

	"github.com/tisonkun/morax/internal/bookie"
	"github.com/tisonkun/morax/internal/controller"
)

func newTestServer(t *testing.T, withController bool) *httptest.Server {
	t.Helper()

	var ctrl *controller.Controller
	if withController {
		_, transport := raft.NewInmemTransport("")
		var err error
		ctrl, err = controller.Open(controller.Options{
			NodeID:             "node-1",
			Bootstrap:          true,
			ApplyTimeout:       2 * time.Second,
			Transport:          transport,
			LogStore:           raft.NewInmemStore(),
			StableStore:        raft.NewInmemStore(),
			SnapshotStore:      raft.NewInmemSnapshotStore(),
			HeartbeatTimeout:   50 * time.Millisecond,
			ElectionTimeout:    50 * time.Millisecond,
			LeaderLeaseTimeout: 50 * time.Millisecond,
			CommitTimeout:      5 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("open controller: %v", err)
		}
		t.Cleanup(func() { _ = ctrl.Shutdown() })
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ctrl.WaitForLeader(ctx); err != nil {
			t.Fatalf("wait for leader: %v", err)
		}
	}

	bk, err := bookie.Open(bookie.Options{DataDir: t.TempDir(), ReaderCacheSize: 8})
	if err != nil {
		t.Fatalf("open bookie: %v", err)
	}
	t.Cleanup(func() { _ = bk.Close() })

	srv := New(ctrl, bk, nil)
	ts := httptest.NewServer(srv.srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAppendReadOverHTTP(t *testing.T) {
	ts := newTestServer(t, false)

	resp := postJSON(t, ts.URL+"/v1/ledgers/append", appendEntryReq{
		LedgerID: 7, EntryID: 0, LastAddConfirmed: -1, Payload: []byte("x"),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("append status: %d", resp.StatusCode)
	}
	var loc appendEntryResp
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc.LogID != 1 || loc.Offset != 0 {
		t.Fatalf("unexpected first location: %+v", loc)
	}

	resp = getJSON(t, ts.URL+"/v1/ledgers/read?ledgerId=7&entryId=0")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read status: %d", resp.StatusCode)
	}
	var entry readEntryResp
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(entry.Payload) != "x" || entry.LedgerID != 7 {
		t.Fatalf("round trip mismatch: %+v", entry)
	}
}

func TestReadMissingEntryIs404(t *testing.T) {
	ts := newTestServer(t, false)
	resp := getJSON(t, ts.URL+"/v1/ledgers/read?ledgerId=7&entryId=99")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestAppendRejectsBadRequest(t *testing.T) {
	ts := newTestServer(t, false)
	resp := postJSON(t, ts.URL+"/v1/ledgers/append", map[string]any{"ledgerId": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestControllerEndpointsDisabledWithoutRole(t *testing.T) {
	ts := newTestServer(t, false)
	resp := getJSON(t, ts.URL+"/v1/bookies/list")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", resp.StatusCode)
	}
}

func TestRegisterAndListOverHTTP(t *testing.T) {
	ts := newTestServer(t, true)

	resp := postJSON(t, ts.URL+"/v1/bookies/register", registerBookieReq{Service: "10.0.0.1:3181"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	var reg registerBookieResp
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.AlreadyExisted {
		t.Fatalf("first registration should not exist")
	}

	resp = postJSON(t, ts.URL+"/v1/bookies/register", registerBookieReq{Service: "10.0.0.1:3181"})
	var reg2 registerBookieResp
	if err := json.NewDecoder(resp.Body).Decode(&reg2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reg2.AlreadyExisted {
		t.Fatalf("second registration should report existing")
	}

	resp = getJSON(t, ts.URL+"/v1/bookies/list")
	var list listBookiesResp
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Services) != 1 || list.Services[0] != "10.0.0.1:3181" {
		t.Fatalf("unexpected membership: %v", list.Services)
	}
}

func TestCreateLedgerAllocatesIncreasingIDs(t *testing.T) {
	ts := newTestServer(t, true)

	var prev int64
	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/v1/ledgers/create", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("create status: %d", resp.StatusCode)
		}
		var created createLedgerResp
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.LedgerID <= prev {
			t.Fatalf("ledger ids must increase: %d after %d", created.LedgerID, prev)
		}
		prev = created.LedgerID
	}
}
