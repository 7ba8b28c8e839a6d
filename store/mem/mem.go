// Package mem provides a store implementation that keeps diagrams in memory.
//
// It is intended for development, testing and single process setups that can
// afford to lose diagrams on restart.
package mem

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/google/uuid"
)

func New(customizers ...func(*Options)) (store.Store, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &memStore{
		diagrams: map[string]store.Diagram{},

		defaultQueryLimit: options.DefaultQueryLimit,
	}, nil
}

func NewOptions() Options {
	return Options{
		DefaultQueryLimit: 1000,
	}
}

type Options struct {
	DefaultQueryLimit int // Maximum number of diagrams, returned by a listing without explicit limit.
}

func (o Options) Validate() error {
	if o.DefaultQueryLimit <= 0 {
		return errors.New("default query limit must be positive")
	}
	return nil
}

type memStore struct {
	mutex    sync.RWMutex
	diagrams map[string]store.Diagram
	order    []string // ids in creation order

	defaultQueryLimit int
}

func (s *memStore) CreateDiagram(_ context.Context, cmd store.CreateDiagramCmd) (store.Diagram, error) {
	if err := cmd.Validate(); err != nil {
		return store.Diagram{}, err
	}

	diagram := store.Diagram{
		Id:           uuid.NewString(),
		Name:         cmd.Name,
		CreatedAt:    time.Now().UTC(),
		SourceXml:    cmd.SourceXml,
		OutputXml:    cmd.OutputXml,
		WarningCount: cmd.WarningCount,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.diagrams[diagram.Id] = diagram
	s.order = append(s.order, diagram.Id)

	return diagram, nil
}

func (s *memStore) GetDiagram(_ context.Context, id string) (store.Diagram, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	diagram, ok := s.diagrams[id]
	if !ok {
		return store.Diagram{}, store.ErrNotFound
	}
	return diagram, nil
}

func (s *memStore) ListDiagrams(_ context.Context, criteria store.DiagramCriteria) ([]store.Diagram, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = s.defaultQueryLimit
	}

	name := strings.ToLower(criteria.Name)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	diagrams := []store.Diagram{}

	skipped := 0
	for i := len(s.order) - 1; i >= 0 && len(diagrams) < limit; i-- {
		diagram := s.diagrams[s.order[i]]
		if name != "" && !strings.Contains(strings.ToLower(diagram.Name), name) {
			continue
		}
		if skipped < criteria.Offset {
			skipped++
			continue
		}

		diagram.SourceXml = ""
		diagram.OutputXml = ""
		diagrams = append(diagrams, diagram)
	}

	return diagrams, nil
}

func (s *memStore) DeleteDiagram(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.diagrams[id]; !ok {
		return store.ErrNotFound
	}

	delete(s.diagrams, id)
	s.order = slices.DeleteFunc(s.order, func(orderedId string) bool {
		return orderedId == id
	})

	return nil
}

func (s *memStore) Shutdown() {
}
