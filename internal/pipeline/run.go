package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/pos-sales-report/pkg/utils"
)

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated workbook.
	// This is empty if processing failed.
	OutputFile string

	// ArchivePath is where the input was moved to, if it was archived.
	ArchivePath string

	Success bool

	// Error contains the error if processing failed.
	Error error

	Stats Stats

	// ProcessingTime covers the whole run including export.
	ProcessingTime time.Duration
}

// Run processes one file from disk end to end: analysis, workbook written
// to the file manager's output directory, then input archival. Archival
// failures are logged and do not fail the run.
func (c *Converter) Run(ctx context.Context, path string, fm *utils.FileManager) Result {
	start := time.Now()
	result := Result{FilePath: path}
	log := c.logger.With().Str("file", filepath.Base(path)).Logger()

	log.Info().Msg("processing file")

	analysis, err := c.AnalyzeFile(ctx, path)
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats = analysis.Stats

	name := utils.GenerateOutputFileName(c.cfg.OutputNameFormat, map[string]string{"source": path})
	outputPath := filepath.Join(fm.OutputDir, name)
	if err := c.writeOutput(ctx, analysis, outputPath); err != nil {
		result.Error = err
		return result
	}
	result.OutputFile = outputPath
	log.Info().Str("output", outputPath).Msg("wrote workbook")

	archived, err := fm.ArchiveInputFile(path)
	if err != nil {
		log.Warn().Err(err).Msg("failed to archive input")
	} else if archived != path {
		result.ArchivePath = archived
	}

	result.Success = true
	result.ProcessingTime = time.Since(start)
	return result
}

// AnalyzeFile runs Analyze on a file from disk.
func (c *Converter) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return c.Analyze(ctx, f, path)
}

// writeOutput writes the workbook and removes the file again if writing fails.
func (c *Converter) writeOutput(ctx context.Context, a *Analysis, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	err = c.Export(ctx, a, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output: %w", closeErr)
	}
	if err != nil {
		os.Remove(outputPath)
		return err
	}
	return nil
}
