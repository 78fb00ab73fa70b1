// Command catexd is the read-only results server: it exposes the most
// recently completed run's summary and dispatch over HTTP. It never
// solves anything itself and shares no memory with cmd/catex — it
// reads the run.json snapshot cmd/catex leaves in outputs/.
package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/REAM-lab/CATEX/internal/pkg/config"
	"github.com/REAM-lab/CATEX/internal/pkg/webservice"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("[Main] config: %v", err)
	}

	snapshotPath := filepath.Join(cfg.MainDir, "outputs", "run.json")
	store := webservice.NewStore(snapshotPath)
	if err := store.Reload(); err != nil {
		log.Printf("[Main] initial reload: %v", err)
	}

	router := webservice.Router(store)
	log.Printf("[Main] Serving results from %s on %s", snapshotPath, cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		log.Fatalf("[Main] serve: %v", err)
	}
}
