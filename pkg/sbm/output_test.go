package sbm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileWriterWriteAll(t *testing.T) {
	n := tinyBipartite(t, 42)
	if err := n.InitializeBlocks(-1); err != nil {
		t.Fatalf("InitializeBlocks: %v", err)
	}

	sweep, err := n.MCMCSweep(context.Background(), 0, 2, 0.2, false, false, false)
	if err != nil {
		t.Fatalf("MCMCSweep: %v", err)
	}
	state, err := n.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	dir := t.TempDir()
	writer := NewFileWriter()
	if err := writer.WriteAll(state, sweep, nil, dir, "run"); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	stateData, err := os.ReadFile(filepath.Join(dir, "run.state.json"))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	var restored StateDump
	if err := json.Unmarshal(stateData, &restored); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if restored.Size() != state.Size() {
		t.Errorf("restored state has %d rows, want %d", restored.Size(), state.Size())
	}

	sweepData, err := os.ReadFile(filepath.Join(dir, "run.sweeps.json"))
	if err != nil {
		t.Fatalf("read sweep file: %v", err)
	}
	var restoredSweep SweepResult
	if err := json.Unmarshal(sweepData, &restoredSweep); err != nil {
		t.Fatalf("unmarshal sweep: %v", err)
	}
	if len(restoredSweep.EntropyDeltas) != 2 {
		t.Errorf("restored sweep has %d entries, want 2", len(restoredSweep.EntropyDeltas))
	}

	if _, err := os.Stat(filepath.Join(dir, "run.collapse.json")); !os.IsNotExist(err) {
		t.Error("collapse file written despite nil collapse result")
	}
}
