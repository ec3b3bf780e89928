package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rowdoc "github.com/alnah/go-rowdoc"
)

// dirPermissions is rwxr-x---: owner full, group read+execute.
const dirPermissions = 0o750

// Sentinel errors for batch operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrCreateOutputDir = errors.New("failed to create output directory")
	ErrRendererInit    = errors.New("failed to initialize renderer")
)

// RowRenderer is the interface for the document renderer.
type RowRenderer interface {
	RenderRow(ctx context.Context, rec rowdoc.Record, cols []rowdoc.Column, s rowdoc.Settings, outDir string) (string, error)
	RenderTable(ctx context.Context, recs []rowdoc.Record, cols []rowdoc.Column, s rowdoc.Settings, outDir string) (string, error)
}

// Compile-time interface implementation check.
var _ RowRenderer = (*rowdoc.Renderer)(nil)

// Pool abstracts renderer pool operations for testability.
type Pool interface {
	Acquire() (RowRenderer, error)
	Release(RowRenderer)
	Size() int
}

// poolAdapter exposes a *rowdoc.RendererPool as a Pool.
type poolAdapter struct {
	pool *rowdoc.RendererPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (RowRenderer, error) {
	r, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (a *poolAdapter) Release(r RowRenderer) {
	rr, ok := r.(*rowdoc.Renderer)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", r))
	}
	a.pool.Release(rr)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

// renderJob is everything a worker needs to write documents.
type renderJob struct {
	columns  []rowdoc.Column
	settings rowdoc.Settings
	outDir   string
}

// RenderResult holds the outcome of a single document.
type RenderResult struct {
	RecordID   string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// renderBatch writes one document per record concurrently using the pool.
// Results keep the input order.
func renderBatch(ctx context.Context, pool Pool, recs []rowdoc.Record, job *renderJob) []RenderResult {
	if len(recs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(recs))

	results := make([]RenderResult, len(recs))
	var wg sync.WaitGroup
	jobs := make(chan int, len(recs))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := pool.Acquire()
			if err != nil {
				// Renderer creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = RenderResult{
						RecordID: recordID(recs[idx], job.settings.IDColumn),
						Err:      fmt.Errorf("%w: %w", ErrRendererInit, err),
					}
				}
				return
			}
			defer pool.Release(r)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{
						RecordID: recordID(recs[idx], job.settings.IDColumn),
						Err:      ctx.Err(),
					}
					continue
				}
				results[idx] = renderRecord(ctx, r, recs[idx], job)
			}
		}()
	}

	for i := range recs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderRecord writes a single record and times it.
func renderRecord(ctx context.Context, r RowRenderer, rec rowdoc.Record, job *renderJob) RenderResult {
	start := time.Now()
	path, err := r.RenderRow(ctx, rec, job.columns, job.settings, job.outDir)
	return RenderResult{
		RecordID:   recordID(rec, job.settings.IDColumn),
		OutputPath: path,
		Err:        err,
		Duration:   time.Since(start),
	}
}

// renderSummary writes the table document with one pooled renderer.
func renderSummary(ctx context.Context, pool Pool, recs []rowdoc.Record, job *renderJob) RenderResult {
	start := time.Now()
	result := RenderResult{RecordID: rowdoc.SummaryBaseName}

	r, err := pool.Acquire()
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrRendererInit, err)
		result.Duration = time.Since(start)
		return result
	}
	defer pool.Release(r)

	result.OutputPath, result.Err = r.RenderTable(ctx, recs, job.columns, job.settings, job.outDir)
	result.Duration = time.Since(start)
	return result
}

// recordID returns the identifier value used in result lines.
func recordID(rec rowdoc.Record, idColumn string) string {
	if v, ok := rec.Lookup(idColumn); ok && v != "" {
		return v
	}
	return "(no " + idColumn + ")"
}

// ResultSummary holds the count of succeeded and failed documents.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed documents.
func countResults(results []RenderResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first failure in input order.
func firstError(results []RenderResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResults outputs results using the environment's writers and
// returns the summary.
func printResults(results []RenderResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.RecordID, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.RecordID, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}
