// Package monitor serves the contents of a capture database over HTTP.
package monitor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sarchlab/hyperfifo/capture"
	"github.com/sarchlab/hyperfifo/capture/store"
	"github.com/sarchlab/hyperfifo/gateware/analyzer"
	"github.com/sarchlab/hyperfifo/log"
)

// DefaultPageSize is the number of records listed when no limit is given.
const DefaultPageSize = 100

// RecordView is the JSON form of a capture record.
type RecordView struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Timestamp uint16 `json:"timestamp"`
	Event     string `json:"event,omitempty"`
	Length    int    `json:"length"`
	Data      string `json:"data,omitempty"`
}

// NewRecordView converts a stored record.
func NewRecordView(seq uint64, r capture.Record) RecordView {
	v := RecordView{
		Seq:       seq,
		Kind:      r.Kind.String(),
		Timestamp: r.Timestamp,
		Length:    len(r.Data),
	}

	if r.Kind == capture.KindEvent {
		v.Event = r.Event.String()
	} else {
		v.Data = hex.EncodeToString(r.Data)
	}

	return v
}

// StatsView is the answer of the stats endpoint.
type StatsView struct {
	Records int               `json:"records"`
	Meta    map[string]string `json:"meta"`
	Buffer  *analyzer.Stats   `json:"buffer,omitempty"`
}

// Server answers queries about one capture database.
type Server struct {
	Store  *store.Store
	Router *mux.Router

	stats func() analyzer.Stats
}

// NewServer creates a server over s.
func NewServer(s *store.Store) *Server {
	srv := &Server{Store: s}
	srv.configureRouter()

	return srv
}

// WithStats makes the stats endpoint report live buffer counters.
func (s *Server) WithStats(stats func() analyzer.Stats) *Server {
	s.stats = stats
	return s
}

func (s *Server) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/stats", s.handleStats()).Methods("GET")
	subRouter.HandleFunc("/packets", s.handleList()).Methods("GET")
	subRouter.HandleFunc("/packets/{seq:[0-9]+}", s.handleGet()).Methods("GET")
	subRouter.HandleFunc("/pcap", s.handlePCAP()).Methods("GET")
}

// Handler returns the router wrapped with request logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	return handlers.RecoveryHandler()(
		handlers.LoggingHandler(log.Writer(), s.Router))
}

// Start serves on address until ctx is cancelled.
func (s *Server) Start(ctx context.Context, address string) error {
	log.Info("Starting status server: address: %s", address)

	httpServer := &http.Server{
		Handler:           s.Handler(),
		Addr:              address,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response: %v", err)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Store.Count()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		meta, err := s.Store.AllMeta()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		view := StatsView{Records: n, Meta: meta}
		if s.stats != nil {
			stats := s.stats()
			view.Buffer = &stats
		}

		writeJSON(w, view)
	}
}

func (s *Server) handleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		seq, err := strconv.ParseUint(vars["seq"], 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		record, err := s.Store.Get(seq)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Record %d not found", seq), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, NewRecordView(seq, record))
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return def, nil
	}

	v, err := strconv.Atoi(str)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}

	return v, nil
}

func (s *Server) handleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := queryInt(r, "from", 1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit, err := queryInt(r, "limit", DefaultPageSize)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		seqs, records, err := s.Store.List(uint64(from), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		views := make([]RecordView, len(records))
		for i, rec := range records {
			views[i] = NewRecordView(seqs[i], rec)
		}

		writeJSON(w, views)
	}
}

func (s *Server) handlePCAP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.tcpdump.pcap")
		w.Header().Set("Content-Disposition", `attachment; filename="capture.pcap"`)

		opts := store.PCAPOptions{
			PacketsOnly: r.URL.Query().Get("packets_only") == "true",
		}

		if _, err := s.Store.ExportPCAP(w, opts); err != nil {
			log.Error("export pcap: %v", err)
		}
	}
}
