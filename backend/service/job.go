package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmorrell/sbm-service/backend/config"
	"github.com/jmorrell/sbm-service/backend/models"
)

// JobService runs inference jobs in the background and keeps their results
// in memory. Results are never removed; nothing expires them.
type JobService struct {
	jobs     map[string]*models.Job
	results  map[string]*models.JobResult
	cancels  map[string]context.CancelFunc
	workers  chan struct{}
	datasets *DatasetService
	defaults config.InferenceConfig
	timeout  time.Duration
	mutex    sync.RWMutex
}

// NewJobService creates a job runner backed by the dataset store.
func NewJobService(datasets *DatasetService, cfg *config.Config) *JobService {
	return &JobService{
		jobs:     make(map[string]*models.Job),
		results:  make(map[string]*models.JobResult),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, cfg.Jobs.MaxWorkers),
		datasets: datasets,
		defaults: cfg.Inference,
		timeout:  cfg.Jobs.JobTimeout,
	}
}

// Submit creates and queues a new inference job.
func (s *JobService) Submit(datasetID string, algorithm models.AlgorithmType, params models.JobParameters) (*models.Job, error) {
	if _, err := s.datasets.Get(datasetID); err != nil {
		return nil, err
	}
	switch algorithm {
	case models.AlgorithmMCMCSweep, models.AlgorithmCollapseBlocks:
	default:
		return nil, fmt.Errorf("unknown algorithm: %s", algorithm)
	}

	s.applyDefaults(&params, algorithm)

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		DatasetID:  datasetID,
		Algorithm:  algorithm,
		Parameters: params,
		Status:     models.JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mutex.Lock()
	s.jobs[job.ID] = job
	s.mutex.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Str("algorithm", string(algorithm)).
		Msg("Job submitted")

	go s.process(job.ID)

	return job, nil
}

func (s *JobService) applyDefaults(params *models.JobParameters, algorithm models.AlgorithmType) {
	if params.Seed == 0 {
		params.Seed = s.defaults.RandomSeed
	}
	if params.Eps == 0 {
		params.Eps = s.defaults.Eps
	}
	if params.NChecksPerBlock == 0 {
		params.NChecksPerBlock = s.defaults.NChecksPerBlock
	}
	if params.Sigma == 0 {
		params.Sigma = s.defaults.Sigma
	}
	if params.NSweeps == 0 && algorithm == models.AlgorithmMCMCSweep {
		params.NSweeps = 10
	}
	if params.BEnd == 0 && algorithm == models.AlgorithmCollapseBlocks {
		params.BEnd = 1
	}
	if params.NInitialBlocks == 0 {
		params.NInitialBlocks = -1
	}
}

// Get retrieves a job by id.
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

// GetResult retrieves the result of a completed job.
func (s *JobService) GetResult(jobID string) (*models.JobResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result, ok := s.results[jobID]
	if !ok {
		return nil, fmt.Errorf("result not found for job: %s", jobID)
	}
	return result, nil
}

// Cancel stops a queued or running job.
func (s *JobService) Cancel(jobID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if job.Status != models.JobStatusQueued && job.Status != models.JobStatusRunning {
		return fmt.Errorf("job %s is %s and cannot be cancelled", jobID, job.Status)
	}

	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
	}
	job.Status = models.JobStatusCancelled
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobService) setStatus(jobID string, status models.JobStatus, errMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if job.Status == models.JobStatusCancelled && status != models.JobStatusCancelled {
		return
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now()
}

func (s *JobService) process(jobID string) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	s.mutex.RLock()
	job := s.jobs[jobID]
	s.mutex.RUnlock()
	if job == nil || job.Status == models.JobStatusCancelled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.mutex.Lock()
	s.cancels[jobID] = cancel
	s.mutex.Unlock()
	defer func() {
		cancel()
		s.mutex.Lock()
		delete(s.cancels, jobID)
		s.mutex.Unlock()
	}()

	s.setStatus(jobID, models.JobStatusRunning, "")

	result, err := s.run(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			s.setStatus(jobID, models.JobStatusCancelled, ctx.Err().Error())
		} else {
			s.setStatus(jobID, models.JobStatusFailed, err.Error())
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("Job failed")
		return
	}

	s.mutex.Lock()
	s.results[jobID] = result
	s.mutex.Unlock()
	s.setStatus(jobID, models.JobStatusCompleted, "")

	log.Info().
		Str("job_id", jobID).
		Float64("entropy", result.Entropy).
		Msg("Job completed")
}

func (s *JobService) run(ctx context.Context, job *models.Job) (*models.JobResult, error) {
	dataset, err := s.datasets.Get(job.DatasetID)
	if err != nil {
		return nil, err
	}

	network, err := s.datasets.BuildNetwork(dataset, job.Parameters.Seed)
	if err != nil {
		return nil, err
	}

	params := job.Parameters
	result := &models.JobResult{JobID: job.ID}

	switch job.Algorithm {
	case models.AlgorithmMCMCSweep:
		if err := network.InitializeBlocks(params.NInitialBlocks); err != nil {
			return nil, err
		}
		sweep, err := network.MCMCSweep(ctx, params.Level, params.NSweeps, params.Eps,
			params.VariableNumBlocks, params.TrackPairs, false)
		if err != nil {
			return nil, err
		}
		result.Sweep = sweep

	case models.AlgorithmCollapseBlocks:
		collapse, err := network.CollapseBlocks(ctx, params.Level, params.BEnd,
			params.NChecksPerBlock, params.NMCMCSweeps, params.Sigma, params.Eps,
			params.ReportAllSteps, params.AllowExhaustive)
		if err != nil {
			return nil, err
		}
		result.Collapse = collapse
	}

	state, err := network.State()
	if err != nil {
		return nil, err
	}
	entropy, err := network.Entropy(params.Level)
	if err != nil {
		return nil, err
	}
	blockCounts, err := network.BlockCounts()
	if err != nil {
		return nil, err
	}
	interblock, err := network.InterblockEdgeCounts(params.Level + 1)
	if err != nil {
		return nil, err
	}

	result.State = state
	result.Entropy = entropy
	result.NLevels = network.NLevels()
	result.BlockCounts = blockCounts
	result.InterblockEdges = interblock
	return result, nil
}
