package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jmorrell/sbm-service/backend/coordinates"
	"github.com/jmorrell/sbm-service/backend/models"
	"github.com/jmorrell/sbm-service/backend/service"
	"github.com/jmorrell/sbm-service/backend/utils"
)

// Handlers bundles the services the HTTP layer dispatches into.
type Handlers struct {
	Datasets *service.DatasetService
	Jobs     *service.JobService
}

// NewHandlers creates the handler set.
func NewHandlers(datasets *service.DatasetService, jobs *service.JobService) *Handlers {
	return &Handlers{Datasets: datasets, Jobs: jobs}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "ok", map[string]string{"status": "healthy"})
}

// CreateDataset stores an uploaded graph.
func (h *Handlers) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var upload models.DatasetUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dataset, err := h.Datasets.Create(&upload)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Failed to create dataset", err)
		return
	}
	utils.WriteSuccessResponse(w, "Dataset created", dataset)
}

// ListDatasets returns every stored dataset.
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Datasets", h.Datasets.List())
}

// GetDataset returns a dataset by id.
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.Datasets.Get(mux.Vars(r)["datasetId"])
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Dataset not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Dataset", dataset)
}

// DeleteDataset removes a dataset.
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.Datasets.Delete(mux.Vars(r)["datasetId"]); err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Dataset not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Dataset deleted", nil)
}

// StartJob submits an inference job for a dataset.
func (h *Handlers) StartJob(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Algorithm  models.AlgorithmType `json:"algorithm"`
		Parameters models.JobParameters `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.Jobs.Submit(mux.Vars(r)["datasetId"], request.Algorithm, request.Parameters)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Failed to submit job", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job submitted", job)
}

// GetJob returns job status.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(mux.Vars(r)["jobId"])
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Job not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job", job)
}

// CancelJob stops a queued or running job.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.Jobs.Cancel(mux.Vars(r)["jobId"]); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Failed to cancel job", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job cancelled", nil)
}

// GetJobResult returns the result of a completed job.
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.GetResult(mux.Vars(r)["jobId"])
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job result", result)
}

// GetJobLayout computes a 2D embedding of a completed job's block graph,
// with PageRank importance per block.
func (h *Handlers) GetJobLayout(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	result, err := h.Jobs.GetResult(jobID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
		return
	}

	blockGraph := coordinates.NewBlockGraph(result.InterblockEdges)

	layout, err := coordinates.NewLayoutCalculator().Calculate(blockGraph)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Layout computation failed", err)
		return
	}
	importance, err := coordinates.NewImportanceCalculator().Calculate(blockGraph)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Importance computation failed", err)
		return
	}

	blockTypes := make(map[string]string)
	blockSizes := make(map[string]int)
	for i := 0; i < result.State.Size(); i++ {
		if result.State.Levels[i] == 1 {
			blockTypes[result.State.IDs[i]] = result.State.Types[i]
		}
		if result.State.Levels[i] == 0 {
			blockSizes[result.State.Parents[i]]++
		}
	}

	response := models.LayoutResponse{JobID: jobID}
	for _, id := range blockGraph.NodeIDs() {
		name := blockGraph.BlockOf[id]
		position := layout.Coordinates[id]
		response.Blocks = append(response.Blocks, models.BlockPosition{
			ID:         name,
			Type:       blockTypes[name],
			X:          position.X,
			Y:          position.Y,
			Size:       blockSizes[name],
			Importance: importance.Scores[id],
		})
	}

	utils.WriteSuccessResponse(w, "Job layout", response)
}
