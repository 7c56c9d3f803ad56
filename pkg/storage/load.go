package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	affinityerrors "github.com/umafamily/affinity/pkg/errors"
	"github.com/umafamily/affinity/pkg/types"
)

var loadDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "affinity",
	Name:      "storage_load_duration_ms",
	Help:      "Time (in ms) spent loading the reference data of a run.",
	Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
})

// Load reads the three record sets concurrently and validates them: character
// ids must be non-zero and unique, rules must name a relation type, and group
// records repeating a membership are dropped.
func Load(ctx context.Context, r RecordReader) (*Dataset, error) {
	start := time.Now()
	defer func() {
		loadDurationHistogram.Observe(float64(time.Since(start).Milliseconds()))
	}()

	var d Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entities, err := r.ReadEntities(gctx)
		if err != nil {
			return fmt.Errorf("read characters: %w", err)
		}
		d.Entities = entities
		return nil
	})
	g.Go(func() error {
		rules, err := r.ReadRelationRules(gctx)
		if err != nil {
			return fmt.Errorf("read relation rules: %w", err)
		}
		d.Rules = rules
		return nil
	})
	g.Go(func() error {
		groups, err := r.ReadRelationGroups(gctx)
		if err != nil {
			return fmt.Errorf("read relation groups: %w", err)
		}
		d.Groups = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.Groups = DedupeGroups(d.Groups)
	return &d, nil
}

// Validate checks the invariants shared by every reader.
func (d *Dataset) Validate() error {
	seen := make(map[types.EntityID]struct{}, len(d.Entities))
	for i, e := range d.Entities {
		if e.ID == 0 {
			return affinityerrors.DataIntegrityf("character record %d: missing id", i)
		}
		if _, ok := seen[e.ID]; ok {
			return affinityerrors.DataIntegrityf("character record %d: duplicate id %d", i, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	for i, r := range d.Rules {
		if r.RelationType == "" {
			return affinityerrors.DataIntegrityf("relation rule record %d: missing relation type", i)
		}
	}
	return nil
}

// DedupeGroups drops repeated memberships, keeping first occurrences in order.
func DedupeGroups(groups []types.RelationGroup) []types.RelationGroup {
	out := make([]types.RelationGroup, 0, len(groups))
	seen := make(map[types.RelationGroup]struct{}, len(groups))
	for _, g := range groups {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
