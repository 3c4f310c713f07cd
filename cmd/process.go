// =============================================================================
// POS Sales Report - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch entry point. Every
// export found in the input directory is an independent run.
//
// COMMAND USAGE:
//   salesreport process [flags]
//
// FLAGS:
//   --dry-run      : Analyze without writing workbooks or archiving inputs
//   --file         : Process a single file instead of scanning the input directory
//   --embed-charts : Embed chart images in each workbook
//   --top-n        : Number of products in the ranking
//
// PROCESSING PIPELINE:
//   1. Load configuration and the store directory
//   2. Discover CSV/xlsx exports in the input directory
//   3. For each file (concurrently, at most max_concurrency at a time):
//      a. Decode and validate the export
//      b. Normalize rows and aggregate receipts
//      c. Build the report views (and charts)
//      d. Write the workbook to the output directory
//      e. Archive the input
//   4. Write the summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
	"github.com/ginjaninja78/pos-sales-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun analyzes without writing output files.
var dryRun bool

// filePath is a single file to process instead of scanning the input directory.
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process POS exports into sales analysis workbooks",
	Long: `The process command scans the input directory for POS exports (CSV or
xlsx) and turns each one into a sales analysis workbook.

Files are processed concurrently. Each file is independent: a file that
cannot be decoded or lacks a required column fails on its own and the
others continue.

On successful processing:
  - The workbook is placed in the output directory
  - The original export is moved to the input archive
  - A summary log is written to the output directory

On error:
  - The original export remains in the input directory
  - The failure is listed in the summary log`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze without writing workbooks or archiving inputs")
	processCmd.Flags().StringVar(&filePath, "file", "", "Path to a single file to process")
	processCmd.Flags().String("input-dir", "", "Directory scanned for exports")
	processCmd.Flags().String("output-dir", "", "Directory workbooks are written to")
	processCmd.Flags().Bool("embed-charts", false, "Embed chart images in each workbook")
	processCmd.Flags().Int("top-n", 0, "Number of products in the ranking")
	processCmd.Flags().StringSlice("product-filter", nil, "Restrict the analysis to these products")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: BUILD THE PIPELINE
	// =========================================================================

	fmt.Println("=== POS Sales Report ===")

	conv, err := newConverter()
	if err != nil {
		return err
	}

	fm := newFileManager(cfg)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		fmt.Println("Discovering input files...")
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No exports found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))
	log.Info().Int("files", len(inputFiles)).Bool("dry_run", dryRun).Msg("processing started")

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file; the semaphore bounds how many run at once.

	var wg sync.WaitGroup
	results := make(chan pipeline.Result, len(inputFiles))
	sem := make(chan struct{}, cfg.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)

		go func(path string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- pipeline.Result{FilePath: path, Error: ctx.Err()}
				return
			}

			if dryRun {
				results <- dryRunFile(ctx, conv, path)
				return
			}
			results <- conv.Run(ctx, path, fm)
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}

	for result := range results {
		name := filepath.Base(result.FilePath)
		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			fmt.Printf("  ✗ %s: %v\n", name, result.Error)
			log.Error().Err(result.Error).Str("file", name).Msg("file failed")
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRows += result.Stats.Rows
		summary.KeptRows += result.Stats.Kept
		summary.DroppedRows += result.Stats.Dropped
		summary.TotalReceipts += result.Stats.Receipts
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			ArchivePath: result.ArchivePath,
			Rows:        result.Stats.Rows,
			Dropped:     result.Stats.Dropped,
			Receipts:    result.Stats.Receipts,
			ProcessTime: result.ProcessingTime,
		})

		if result.OutputFile != "" {
			fmt.Printf("  ✓ %s -> %s\n", name, result.OutputFile)
		} else {
			fmt.Printf("  ✓ %s (dry run)\n", name)
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: PRINT AND WRITE SUMMARY
	// =========================================================================

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Rows kept:       %d of %d\n", summary.KeptRows, summary.TotalRows)
	fmt.Printf("Receipts:        %d\n", summary.TotalReceipts)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
		if err != nil {
			log.Warn().Err(err).Msg("failed to write summary log")
		} else {
			fmt.Printf("Summary written to %s\n", path)
		}
	}

	log.Info().
		Int("successful", summary.SuccessfulFiles).
		Int("failed", summary.FailedFiles).
		Dur("elapsed", summary.EndTime.Sub(startTime)).
		Msg("processing complete")

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// newFileManager applies the directory and archive settings.
func newFileManager(cfg *config.Config) *utils.FileManager {
	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveOnSuccess
	fm.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs
	return fm
}

// dryRunFile analyzes a file without writing or archiving anything.
func dryRunFile(ctx context.Context, conv *pipeline.Converter, path string) pipeline.Result {
	start := time.Now()
	result := pipeline.Result{FilePath: path}

	a, err := conv.AnalyzeFile(ctx, path)
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats = a.Stats
	result.Success = true
	result.ProcessingTime = time.Since(start)
	return result
}
