// Package storage loads the character, relation rule and relation group
// records a search runs on.
//
//go:generate mockgen -source storage.go -destination mocks/mock_storage.go -package mocks RecordReader
package storage

import (
	"context"

	"github.com/umafamily/affinity/pkg/types"
)

// RecordReader reads the reference data of one run. Implementations must be
// safe for concurrent use: Load calls the three Read methods in parallel.
type RecordReader interface {
	// ReadEntities returns the characters eligible for a family. When an owned
	// roster has been recorded only the owned characters are returned.
	ReadEntities(ctx context.Context) ([]types.Entity, error)

	// ReadRelationRules returns the rules in their stored order.
	ReadRelationRules(ctx context.Context) ([]types.RelationRule, error)

	ReadRelationGroups(ctx context.Context) ([]types.RelationGroup, error)

	Close()
}

// RosterWriter records which characters the player owns.
type RosterWriter interface {
	SetOwned(ctx context.Context, ids []types.EntityID) error
}

// DatasetWriter replaces the stored reference data.
type DatasetWriter interface {
	WriteDataset(ctx context.Context, d *Dataset) error
}

// Dataset is the complete reference data of one run.
type Dataset struct {
	Entities []types.Entity
	Rules    []types.RelationRule
	Groups   []types.RelationGroup
}
