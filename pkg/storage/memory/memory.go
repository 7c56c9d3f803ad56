// Package memory provides an in-process record store.
package memory

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

var tracer = otel.Tracer("affinity/pkg/storage/memory")

// StorageOption defines a function type used for configuring a [MemoryBackend] instance.
type StorageOption func(*MemoryBackend)

// WithDataset seeds the backend with d.
func WithDataset(d *storage.Dataset) StorageOption {
	return func(s *MemoryBackend) {
		s.setDataset(d)
	}
}

// MemoryBackend holds the reference data in memory. All methods return
// copies, so callers may modify what they get back.
type MemoryBackend struct {
	mu       sync.RWMutex
	entities []types.Entity              // GUARDED_BY(mu).
	rules    []types.RelationRule        // GUARDED_BY(mu).
	groups   []types.RelationGroup       // GUARDED_BY(mu).
	owned    map[types.EntityID]struct{} // GUARDED_BY(mu).
}

var (
	_ storage.RecordReader  = (*MemoryBackend)(nil)
	_ storage.RosterWriter  = (*MemoryBackend)(nil)
	_ storage.DatasetWriter = (*MemoryBackend)(nil)
)

// New creates a new [MemoryBackend].
func New(opts ...StorageOption) *MemoryBackend {
	s := &MemoryBackend{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadEntities see [storage.RecordReader].ReadEntities.
func (s *MemoryBackend) ReadEntities(ctx context.Context) ([]types.Entity, error) {
	_, span := tracer.Start(ctx, "memory.ReadEntities")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.owned) == 0 {
		return slices.Clone(s.entities), nil
	}

	out := make([]types.Entity, 0, len(s.owned))
	for _, e := range s.entities {
		if _, ok := s.owned[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadRelationRules see [storage.RecordReader].ReadRelationRules.
func (s *MemoryBackend) ReadRelationRules(ctx context.Context) ([]types.RelationRule, error) {
	_, span := tracer.Start(ctx, "memory.ReadRelationRules")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules), nil
}

// ReadRelationGroups see [storage.RecordReader].ReadRelationGroups.
func (s *MemoryBackend) ReadRelationGroups(ctx context.Context) ([]types.RelationGroup, error) {
	_, span := tracer.Start(ctx, "memory.ReadRelationGroups")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.groups), nil
}

// SetOwned see [storage.RosterWriter].SetOwned. An empty roster clears the
// owned flag, after which every character is read again.
func (s *MemoryBackend) SetOwned(ctx context.Context, ids []types.EntityID) error {
	_, span := tracer.Start(ctx, "memory.SetOwned")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.owned = make(map[types.EntityID]struct{}, len(ids))
	for _, id := range ids {
		s.owned[id] = struct{}{}
	}
	return nil
}

// WriteDataset see [storage.DatasetWriter].WriteDataset. The owned roster
// is kept.
func (s *MemoryBackend) WriteDataset(ctx context.Context, d *storage.Dataset) error {
	_, span := tracer.Start(ctx, "memory.WriteDataset")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDataset(d)
	return nil
}

func (s *MemoryBackend) setDataset(d *storage.Dataset) {
	s.entities = slices.Clone(d.Entities)
	s.rules = slices.Clone(d.Rules)
	s.groups = slices.Clone(d.Groups)
}

// Close does not do anything for [MemoryBackend].
func (s *MemoryBackend) Close() {}
