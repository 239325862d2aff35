package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/motionlab-data/kinematics.report/internal/config"
	"github.com/motionlab-data/kinematics.report/internal/parse"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
	"github.com/motionlab-data/kinematics.report/internal/report"
	"github.com/motionlab-data/kinematics.report/internal/store"
)

// BatchSummary counts the outcome of one batch invocation.
type BatchSummary struct {
	Processed int
	Failed    int
}

// runBatch processes every recording under input with a bounded
// worker pool. Each worker owns its file end to end: parse, pipeline,
// store, report artifacts. A failed recording is logged and counted
// but never aborts the rest of the batch.
func runBatch(input, outDir string, cfg *config.TuningConfig, st *store.Store) (BatchSummary, error) {
	inputs, err := collectInputs(input)
	if err != nil {
		return BatchSummary{}, err
	}
	if len(inputs) == 0 {
		return BatchSummary{}, fmt.Errorf("no .csv recordings under %s", input)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("create output directory: %w", err)
	}

	pcfg := cfg.PipelineConfig()
	workers := cfg.GetWorkers()
	if workers > len(inputs) {
		workers = len(inputs)
	}

	paths := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var summary BatchSummary

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				runID, err := processRecording(path, outDir, pcfg, st)
				mu.Lock()
				if err != nil {
					summary.Failed++
					log.Printf("FAIL %s: %v", path, err)
				} else {
					summary.Processed++
					log.Printf("ok %s -> %s", path, runID)
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range inputs {
		paths <- path
	}
	close(paths)
	wg.Wait()

	return summary, nil
}

// collectInputs resolves input to the list of .csv files to process:
// the file itself, or every .csv under the directory tree.
func collectInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var out []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// processRecording runs one file through the pipeline and writes all
// its artifacts. The source filename (without extension) becomes the
// recording's source id.
func processRecording(path, outDir string, cfg pipeline.Config, st *store.Store) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sourceID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	run, err := parse.ReadRun(f, sourceID)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}

	res, err := pipeline.Process(run, cfg)
	if err != nil {
		return "", err
	}

	runID, err := st.SaveResult(res)
	if err != nil {
		return "", fmt.Errorf("store: %w", err)
	}

	if err := writeArtifacts(filepath.Join(outDir, runID), res); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return runID, nil
}

// writeArtifacts writes the diagnostics document and charts for one
// run into its own directory.
func writeArtifacts(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	doc, err := os.Create(filepath.Join(dir, "report.json"))
	if err != nil {
		return err
	}
	if err := report.WriteJSON(doc, res); err != nil {
		doc.Close()
		return err
	}
	if err := doc.Close(); err != nil {
		return err
	}

	residual, err := os.Create(filepath.Join(dir, "residual.html"))
	if err != nil {
		return err
	}
	if err := report.RenderResidualHTML(residual, res); err != nil {
		residual.Close()
		return err
	}
	if err := residual.Close(); err != nil {
		return err
	}

	velocity, err := os.Create(filepath.Join(dir, "velocity.html"))
	if err != nil {
		return err
	}
	if err := report.RenderVelocityHTML(velocity, res); err != nil {
		velocity.Close()
		return err
	}
	if err := velocity.Close(); err != nil {
		return err
	}

	return report.SaveResidualPNG(res, filepath.Join(dir, "residual.png"))
}
