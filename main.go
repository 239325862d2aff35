// Command kinematics-report conditions motion-capture recordings and
// derives kinematic diagnostics from them.
//
// In batch mode (-input) every .csv export under the input path is
// run through the full pipeline: quaternion integrity, adaptive
// low-pass filtering, differentiation, and burst classification.
// Results land in the SQLite database and as per-run report
// directories (JSON document, residual and velocity charts).
//
// With -listen the processed results stay browsable over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/motionlab-data/kinematics.report/internal/config"
	"github.com/motionlab-data/kinematics.report/internal/store"
)

var (
	input      = flag.String("input", "", "recording .csv or directory of recordings to process")
	configPath = flag.String("config", "", "tuning config file (json)")
	outDir     = flag.String("out", "reports", "directory for per-run report output")
	dbFile     = flag.String("db", "kinematics.db", "results database path")
	listen     = flag.String("listen", "", "optional listen address for the browse server (e.g. :8080)")
)

func main() {
	flag.Parse()

	if *input == "" && *listen == "" {
		log.Fatal("nothing to do: pass -input to process recordings and/or -listen to serve results")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	st, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open results database: %v", err)
	}
	defer st.Close()

	if *input != "" {
		summary, err := runBatch(*input, *outDir, cfg, st)
		if err != nil {
			log.Fatalf("batch failed: %v", err)
		}
		log.Printf("batch complete: %d processed, %d failed", summary.Processed, summary.Failed)
		if summary.Failed > 0 && *listen == "" {
			log.Fatal("one or more recordings failed; see log above")
		}
	}

	if *listen == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    *listen,
		Handler: NewServer(st, *outDir).ServeMux(),
	}

	go func() {
		log.Printf("browse server listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
