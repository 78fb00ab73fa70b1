// Package webservice is the read-only HTTP surface for the most
// recently completed run, served by cmd/catexd. It reads the run.json
// snapshot cmd/catex writes alongside the CSV outputs — it shares no
// memory with the batch driver, which may be a different process
// entirely. It never triggers a solve and carries no mutation
// endpoints.
package webservice

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/mux"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
)

type runSnapshot struct {
	RunID  string            `json:"run_id"`
	Result *composer.Result `json:"result"`
}

// Store holds the latest run.json snapshot read from disk. Reload is
// called on every request rather than through a filesystem watcher —
// the snapshot is small and requests are infrequent for this batch
// tool's operational visibility use case.
type Store struct {
	mux  sync.RWMutex
	path string
	snap *runSnapshot
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Reload re-reads the snapshot file. A missing file is not an error —
// it means no run has completed yet.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mux.Lock()
		s.snap = nil
		s.mux.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var snap runSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("webservice: %s: %w", s.path, err)
	}

	s.mux.Lock()
	s.snap = &snap
	s.mux.Unlock()
	return nil
}

func (s *Store) snapshot() *runSnapshot {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.snap
}

type runSummary struct {
	RunID            string          `json:"run_id"`
	CostPerPeriod    float64         `json:"cost_per_period"`
	TotalCost        float64         `json:"total_cost"`
	CostPerTimepoint map[int]float64 `json:"cost_per_timepoint"`
}

// Router builds the mux.Router for every read-only endpoint.
func Router(store *Store) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", store.BaseHandler)
	r.HandleFunc("/run/summary", store.SummaryHandler).Methods("GET")
	r.HandleFunc("/run/dispatch", store.DispatchHandler).Methods("GET")
	return r
}

func (s *Store) BaseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
}

func (s *Store) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	if err := s.Reload(); err != nil {
		log.Println("[webservice] reload:", err)
	}
	snap := s.snapshot()
	if snap == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := json.Marshal(runSummary{
		RunID:            snap.RunID,
		CostPerPeriod:    snap.Result.CostPerPeriod,
		TotalCost:        snap.Result.TotalCost,
		CostPerTimepoint: snap.Result.CostPerTimepoint,
	})
	if err != nil {
		log.Println("[webservice] malformed JSON:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Println("[webservice] write error:", err)
	}
}

func (s *Store) DispatchHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	if err := s.Reload(); err != nil {
		log.Println("[webservice] reload:", err)
	}
	snap := s.snapshot()
	if snap == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := json.Marshal(snap.Result)
	if err != nil {
		log.Println("[webservice] malformed JSON:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Println("[webservice] write error:", err)
	}
}
