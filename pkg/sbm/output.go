package sbm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResultWriter persists inference results for later inspection.
type ResultWriter interface {
	WriteState(state StateDump, path string) error
	WriteSweepResult(result *SweepResult, path string) error
	WriteCollapseResult(result *CollapseResult, path string) error
	WriteAll(state StateDump, sweep *SweepResult, collapse *CollapseResult, outputDir, prefix string) error
}

// FileWriter implements ResultWriter with JSON files on disk.
type FileWriter struct{}

// NewFileWriter creates a new file-based result writer.
func NewFileWriter() ResultWriter {
	return &FileWriter{}
}

// WriteAll writes every non-nil result into outputDir under the prefix.
func (fw *FileWriter) WriteAll(state StateDump, sweep *SweepResult, collapse *CollapseResult, outputDir, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if state.Size() > 0 {
		if err := fw.WriteState(state, filepath.Join(outputDir, prefix+".state.json")); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
	}
	if sweep != nil {
		if err := fw.WriteSweepResult(sweep, filepath.Join(outputDir, prefix+".sweeps.json")); err != nil {
			return fmt.Errorf("failed to write sweep result: %w", err)
		}
	}
	if collapse != nil {
		if err := fw.WriteCollapseResult(collapse, filepath.Join(outputDir, prefix+".collapse.json")); err != nil {
			return fmt.Errorf("failed to write collapse result: %w", err)
		}
	}
	return nil
}

// WriteState writes a state dump as JSON.
func (fw *FileWriter) WriteState(state StateDump, path string) error {
	return writeJSON(path, state)
}

// WriteSweepResult writes an MCMC sweep result as JSON.
func (fw *FileWriter) WriteSweepResult(result *SweepResult, path string) error {
	return writeJSON(path, result)
}

// WriteCollapseResult writes a collapse result as JSON.
func (fw *FileWriter) WriteCollapseResult(result *CollapseResult, path string) error {
	return writeJSON(path, result)
}

func writeJSON(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	return os.WriteFile(path, data, 0644)
}
