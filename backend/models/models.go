package models

import (
	"time"

	"github.com/jmorrell/sbm-service/pkg/sbm"
)

// APIResponse is the common envelope for every endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NodeSpec is one node of an uploaded dataset.
type NodeSpec struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// DatasetUpload is the request body for creating a dataset.
type DatasetUpload struct {
	Name         string      `json:"name"`
	Nodes        []NodeSpec  `json:"nodes"`
	Edges        [][2]string `json:"edges"`
	AllowedPairs [][2]string `json:"allowed_pairs,omitempty"`
}

// Dataset is a stored graph ready for inference runs.
type Dataset struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	NodeCount    int         `json:"node_count"`
	EdgeCount    int         `json:"edge_count"`
	TypeNames    []string    `json:"type_names"`
	Nodes        []NodeSpec  `json:"-"`
	Edges        [][2]string `json:"-"`
	AllowedPairs [][2]string `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AlgorithmType selects which inference algorithm a job runs.
type AlgorithmType string

const (
	AlgorithmMCMCSweep      AlgorithmType = "mcmc_sweep"
	AlgorithmCollapseBlocks AlgorithmType = "collapse_blocks"
)

// JobParameters carries the tunables of one inference run. Zero values fall
// back to the server defaults.
type JobParameters struct {
	Seed              int64   `json:"seed,omitempty"`
	Level             int     `json:"level,omitempty"`
	NSweeps           int     `json:"n_sweeps,omitempty"`
	Eps               float64 `json:"eps,omitempty"`
	VariableNumBlocks bool    `json:"variable_num_blocks,omitempty"`
	TrackPairs        bool    `json:"track_pairs,omitempty"`
	NInitialBlocks    int     `json:"n_initial_blocks,omitempty"`
	BEnd              int     `json:"b_end,omitempty"`
	NChecksPerBlock   int     `json:"n_checks_per_block,omitempty"`
	NMCMCSweeps       int     `json:"n_mcmc_sweeps,omitempty"`
	Sigma             float64 `json:"sigma,omitempty"`
	ReportAllSteps    bool    `json:"report_all_steps,omitempty"`
	AllowExhaustive   bool    `json:"allow_exhaustive,omitempty"`
}

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job tracks one asynchronous inference run.
type Job struct {
	ID         string        `json:"id"`
	DatasetID  string        `json:"dataset_id"`
	Algorithm  AlgorithmType `json:"algorithm"`
	Parameters JobParameters `json:"parameters"`
	Status     JobStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// JobResult is the output of a completed job: the final partition plus the
// algorithm-specific reports.
type JobResult struct {
	JobID           string               `json:"job_id"`
	State           sbm.StateDump        `json:"state"`
	Entropy         float64              `json:"entropy"`
	NLevels         int                  `json:"n_levels"`
	BlockCounts     []sbm.TypeCount      `json:"block_counts"`
	InterblockEdges []sbm.BlockPairCount `json:"interblock_edges"`
	Sweep           *sbm.SweepResult     `json:"sweep,omitempty"`
	Collapse        *sbm.CollapseResult  `json:"collapse,omitempty"`
}

// BlockPosition is one block placed by the layout generator.
type BlockPosition struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       int     `json:"size"`
	Importance float64 `json:"importance"`
}

// LayoutResponse is the 2D embedding of a job's block graph.
type LayoutResponse struct {
	JobID  string          `json:"job_id"`
	Blocks []BlockPosition `json:"blocks"`
}
