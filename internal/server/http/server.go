package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/tisonkun/morax/internal/bookie"
	"github.com/tisonkun/morax/internal/controller"
	logpkg "github.com/tisonkun/morax/pkg/log"
)

// Server serves the node's HTTP API. Either role may be absent on a node;
// requests for a disabled role fail with 503.
type Server struct {
	ctrl   *controller.Controller
	bk     *bookie.Bookie
	logger logpkg.Logger
	srv    *http.Server
	lis    net.Listener
}

// New constructs a server over the node's enabled roles.
func New(ctrl *controller.Controller, bk *bookie.Bookie, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	mux := http.NewServeMux()
	s := &Server{ctrl: ctrl, bk: bk, logger: logger.WithComponent("http"), srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/bookies/register", s.handleRegisterBookie)
	mux.HandleFunc("/v1/bookies/list", s.handleListBookies)
	mux.HandleFunc("/v1/ledgers/create", s.handleCreateLedger)
	mux.HandleFunc("/v1/ledgers/append", s.handleAppendEntry)
	mux.HandleFunc("/v1/ledgers/read", s.handleReadEntry)
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listen address, or empty before ListenAndServe.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerBookieReq struct {
	Service string `json:"service"`
}

type registerBookieResp struct {
	AlreadyExisted bool `json:"alreadyExisted"`
}

func (s *Server) handleRegisterBookie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "controller role not enabled on this node")
		return
	}
	var req registerBookieReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Service == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"service\": \"host:port\"}")
		return
	}
	alreadyExisted, err := s.ctrl.RegisterBookie(r.Context(), req.Service)
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registerBookieResp{AlreadyExisted: alreadyExisted})
}

type listBookiesResp struct {
	Services []string `json:"services"`
}

func (s *Server) handleListBookies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "controller role not enabled on this node")
		return
	}
	services, err := s.ctrl.ListBookies(r.Context())
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	if services == nil {
		services = []string{}
	}
	writeJSON(w, http.StatusOK, listBookiesResp{Services: services})
}

type createLedgerResp struct {
	LedgerID int64 `json:"ledgerId"`
}

func (s *Server) handleCreateLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "controller role not enabled on this node")
		return
	}
	ledgerID, err := s.ctrl.NextLedgerID(r.Context())
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createLedgerResp{LedgerID: ledgerID})
}

type appendEntryReq struct {
	LedgerID         int64  `json:"ledgerId"`
	EntryID          int64  `json:"entryId"`
	LastAddConfirmed int64  `json:"lastAddConfirmed"`
	Payload          []byte `json:"payload"`
}

type appendEntryResp struct {
	LogID  int   `json:"logId"`
	Offset int64 `json:"offset"`
}

func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.bk == nil {
		writeError(w, http.StatusServiceUnavailable, "bookie role not enabled on this node")
		return
	}
	var req appendEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed append request")
		return
	}
	if req.LedgerID <= 0 || req.EntryID < 0 {
		writeError(w, http.StatusBadRequest, "ledgerId must be positive and entryId non-negative")
		return
	}
	location, err := s.bk.Ledger(req.LedgerID).AddEntry(bookie.Entry{
		LedgerID:         req.LedgerID,
		EntryID:          req.EntryID,
		LastAddConfirmed: req.LastAddConfirmed,
		Payload:          req.Payload,
	})
	if err != nil {
		s.logger.Error("append failed", logpkg.Int64("ledger_id", req.LedgerID), logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, appendEntryResp{LogID: location.LogID, Offset: location.Offset})
}

type readEntryResp struct {
	LedgerID         int64  `json:"ledgerId"`
	EntryID          int64  `json:"entryId"`
	LastAddConfirmed int64  `json:"lastAddConfirmed"`
	Payload          []byte `json:"payload"`
}

func (s *Server) handleReadEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.bk == nil {
		writeError(w, http.StatusServiceUnavailable, "bookie role not enabled on this node")
		return
	}
	ledgerID, ok1 := queryInt64(r, "ledgerId")
	entryID, ok2 := queryInt64(r, "entryId")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "ledgerId and entryId query params are required")
		return
	}
	entry, err := s.bk.Ledger(ledgerID).ReadEntry(entryID)
	if err != nil {
		switch {
		case errors.Is(err, bookie.ErrNoEntry):
			writeError(w, http.StatusNotFound, "no such entry")
		case errors.Is(err, bookie.ErrReaderClosed):
			// Transient cache race; the client may retry.
			writeError(w, http.StatusServiceUnavailable, "storage handle raced an eviction, retry")
		default:
			s.logger.Error("read failed", logpkg.Int64("ledger_id", ledgerID), logpkg.Int64("entry_id", entryID), logpkg.Err(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, readEntryResp{
		LedgerID:         entry.LedgerID,
		EntryID:          entry.EntryID,
		LastAddConfirmed: entry.LastAddConfirmed,
		Payload:          entry.Payload,
	})
}

func (s *Server) writeControllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, controller.ErrNotLeader) {
		writeJSON(w, http.StatusMisdirectedRequest, map[string]string{
			"error":  "not the leader",
			"leader": s.ctrl.LeaderAddr(),
		})
		return
	}
	s.logger.Error("controller request failed", logpkg.Err(err))
	writeError(w, http.StatusServiceUnavailable, err.Error())
}
