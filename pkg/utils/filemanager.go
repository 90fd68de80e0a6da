// =============================================================================
// Meal Voucher Generator - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a render run:
//   - Export discovery in a directory
//   - Output naming and writing
//   - Export archival (copying rendered exports aside)
//   - Run summary generation
//
// ARCHIVAL STRATEGY:
//   - Exports are copied, never moved, so the operator keeps the original
//   - Only exports that rendered successfully are archived
//   - Archiving is disabled when no archive directory is configured
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the render command.
type FileManager struct {
	// OutputDir is the directory where rendered documents are placed.
	OutputDir string

	// ArchiveDir is the directory for archived exports. Empty disables
	// archiving.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/export.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// EnsureDirectories creates the output and archive directories if they
// don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans dir for exports matching pattern.
//
// PARAMETERS:
//   - dir: The directory to scan.
//   - pattern: A glob pattern to match files. If empty, defaults to "*.csv".
//
// RETURNS:
//   - The matching regular files, sorted by name.
//   - An error if the directory cannot be read.
func DiscoverInputFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", match, err)
		}
		if info.Mode().IsRegular() {
			files = append(files, match)
		}
	}
	sort.Strings(files)

	return files, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// WriteOutput writes data to name inside the output directory.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	path := filepath.Join(fm.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// OutputPath returns the path name would have inside the output directory.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile copies an export to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the export.
//
// RETURNS:
//   - The path to the archived copy, or "" when archiving is disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file. An earlier copy with
// the same name is kept; the new copy gets a numeric suffix instead.
func (fm *FileManager) getArchivePath(filePath string) string {
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		now := time.Now()
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	fileName := filepath.Base(filePath)
	archivePath := filepath.Join(dir, fileName)
	for n := 1; FileExists(archivePath); n++ {
		archivePath = filepath.Join(dir, fmt.Sprintf("%s_%d%s", BaseName(fileName), n, filepath.Ext(fileName)))
	}
	return archivePath
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of format.
//
// {uuid}, {timestamp} (YYYYMMDD_HHMMSS), {date} and {time} are always
// available; params add more, such as {tier} and {original}. The result always
// ends in .html, e.g. "PC_20240115_143022_a1b2c3d4-....html".
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".html") {
		result += ".html"
	}

	return result
}

// ReplaceExtension swaps the extension of name for ext (".xlsx", ".log").
func ReplaceExtension(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	return ReplaceExtension(filepath.Base(path), "")
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a render run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	Tier            string
	TotalFiles      int
	SuccessfulFiles int
	EmptyFiles      int
	FailedFiles     int
	TotalRows       int
	EligibleRecords int
	Vouchers        int
	Warnings        int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a rendered export.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	RosterFile  string
	ArchivePath string
	Rows        int
	Vouchers    int
	Warnings    int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about an export that failed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// Add records a rendered export in the summary totals.
func (s *ProcessingSummary) Add(info ProcessedFileInfo, eligible int) {
	s.TotalFiles++
	s.SuccessfulFiles++
	s.TotalRows += info.Rows
	s.EligibleRecords += eligible
	s.Vouchers += info.Vouchers
	s.Warnings += info.Warnings
	if info.Vouchers == 0 {
		s.EmptyFiles++
	}
	s.ProcessedFiles = append(s.ProcessedFiles, info)
}

// Fail records an export that could not be rendered.
func (s *ProcessingSummary) Fail(inputFile string, err error) {
	s.TotalFiles++
	s.FailedFiles++
	s.FailedFilesList = append(s.FailedFilesList, FailedFileInfo{
		InputFile:    inputFile,
		ErrorMessage: err.Error(),
	})
}

// WriteSummary writes the run report to w: totals, then one table row per
// rendered export, then the failures.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Meal Voucher Generator - Processing Summary")
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Tier\t%s\n", summary.Tier)
	fmt.Fprintf(tw, "Started\t%s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "Duration\t%s\n", summary.EndTime.Sub(summary.StartTime))
	fmt.Fprintf(tw, "Exports\t%d rendered, %d without vouchers, %d failed\n",
		summary.SuccessfulFiles, summary.EmptyFiles, summary.FailedFiles)
	fmt.Fprintf(tw, "Rows\t%d read, %d eligible\n", summary.TotalRows, summary.EligibleRecords)
	fmt.Fprintf(tw, "Vouchers\t%d\n", summary.Vouchers)
	fmt.Fprintf(tw, "Warnings\t%d\n", summary.Warnings)

	if len(summary.ProcessedFiles) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "EXPORT\tDOCUMENT\tROWS\tVOUCHERS\tWARNINGS\tTIME")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
				filepath.Base(pf.InputFile), pf.OutputFile, pf.Rows, pf.Vouchers, pf.Warnings,
				pf.ProcessTime.Round(time.Millisecond))
		}

		for _, pf := range summary.ProcessedFiles {
			if pf.RosterFile != "" {
				fmt.Fprintf(tw, "\nroster of %s: %s", filepath.Base(pf.InputFile), pf.RosterFile)
			}
			if pf.ArchivePath != "" {
				fmt.Fprintf(tw, "\narchived %s: %s", filepath.Base(pf.InputFile), pf.ArchivePath)
			}
		}
		fmt.Fprintln(tw)
	}

	if len(summary.FailedFilesList) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "FAILED\tERROR")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(tw, "%s\t%s\n", filepath.Base(ff.InputFile), ff.ErrorMessage)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return nil
}

// WriteSummaryLog writes the report to processing_summary_<timestamp>.txt in
// outputDir and returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", time.Now().Format("20060102_150405"))
	summaryPath := filepath.Join(outputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if err := WriteSummary(file, summary); err != nil {
		return "", err
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
