package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmorrell/sbm-service/backend/models"
	"github.com/jmorrell/sbm-service/pkg/sbm"
)

// DatasetService stores uploaded graphs in memory.
type DatasetService struct {
	datasets map[string]*models.Dataset
	mutex    sync.RWMutex
}

// NewDatasetService creates an empty dataset store.
func NewDatasetService() *DatasetService {
	return &DatasetService{datasets: make(map[string]*models.Dataset)}
}

// Create validates and stores an uploaded graph.
func (s *DatasetService) Create(upload *models.DatasetUpload) (*models.Dataset, error) {
	if len(upload.Nodes) == 0 {
		return nil, fmt.Errorf("dataset has no nodes")
	}

	typeSet := make(map[string]bool)
	ids := make(map[string]bool, len(upload.Nodes))
	for _, node := range upload.Nodes {
		if node.ID == "" || node.Type == "" {
			return nil, fmt.Errorf("node entries need both id and type")
		}
		if ids[node.ID] {
			return nil, fmt.Errorf("duplicate node id %q", node.ID)
		}
		ids[node.ID] = true
		typeSet[node.Type] = true
	}

	for _, edge := range upload.Edges {
		if !ids[edge[0]] || !ids[edge[1]] {
			return nil, fmt.Errorf("edge %v references an unknown node", edge)
		}
	}

	typeNames := make([]string, 0, len(typeSet))
	for name := range typeSet {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	dataset := &models.Dataset{
		ID:           uuid.New().String(),
		Name:         upload.Name,
		NodeCount:    len(upload.Nodes),
		EdgeCount:    len(upload.Edges),
		TypeNames:    typeNames,
		Nodes:        upload.Nodes,
		Edges:        upload.Edges,
		AllowedPairs: upload.AllowedPairs,
		CreatedAt:    time.Now(),
	}

	s.mutex.Lock()
	s.datasets[dataset.ID] = dataset
	s.mutex.Unlock()

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", dataset.Name).
		Int("nodes", dataset.NodeCount).
		Int("edges", dataset.EdgeCount).
		Msg("Dataset created")

	return dataset, nil
}

// Get retrieves a dataset by id.
func (s *DatasetService) Get(id string) (*models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	dataset, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset not found: %s", id)
	}
	return dataset, nil
}

// List returns every stored dataset.
func (s *DatasetService) List() []*models.Dataset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*models.Dataset, 0, len(s.datasets))
	for _, dataset := range s.datasets {
		out = append(out, dataset)
	}
	return out
}

// Delete removes a dataset.
func (s *DatasetService) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return fmt.Errorf("dataset not found: %s", id)
	}
	delete(s.datasets, id)
	return nil
}

// BuildNetwork constructs a fresh inference network from a dataset.
func (s *DatasetService) BuildNetwork(dataset *models.Dataset, seed int64) (*sbm.Network, error) {
	ids := make([]string, len(dataset.Nodes))
	types := make([]string, len(dataset.Nodes))
	for i, node := range dataset.Nodes {
		ids[i] = node.ID
		types[i] = node.Type
	}

	edgesA := make([]string, len(dataset.Edges))
	edgesB := make([]string, len(dataset.Edges))
	for i, edge := range dataset.Edges {
		edgesA[i] = edge[0]
		edgesB[i] = edge[1]
	}

	allowedA := make([]string, len(dataset.AllowedPairs))
	allowedB := make([]string, len(dataset.AllowedPairs))
	for i, pair := range dataset.AllowedPairs {
		allowedA[i] = pair[0]
		allowedB[i] = pair[1]
	}

	return sbm.NewNetworkWithNodes(ids, types, edgesA, edgesB, dataset.TypeNames, seed, allowedA, allowedB)
}
