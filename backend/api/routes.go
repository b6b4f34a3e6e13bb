package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes wires every endpoint under the /api/v1 prefix.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods("GET")
	datasets.HandleFunc("", handlers.CreateDataset).Methods("POST")
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods("GET")
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods("DELETE")
	datasets.HandleFunc("/{datasetId}/jobs", handlers.StartJob).Methods("POST")

	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}/cancel", handlers.CancelJob).Methods("POST")
	jobs.HandleFunc("/{jobId}/result", handlers.GetJobResult).Methods("GET")
	jobs.HandleFunc("/{jobId}/layout", handlers.GetJobLayout).Methods("GET")

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}
