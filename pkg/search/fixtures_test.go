package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/types"
)

func entities(ids ...types.EntityID) []types.Entity {
	out := make([]types.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Entity{ID: id, Name: "chara " + id.String()})
	}
	return out
}

// randomInput builds a roster of n characters with random memberships in a few
// relation types. Focal is always character 1.
func randomInput(t *testing.T, seed int64, n int) Input {
	t.Helper()
	r := rand.New(rand.NewSource(seed))

	ids := make([]types.EntityID, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, types.EntityID(i))
	}

	var rules []types.RelationRule
	var groups []types.RelationGroup
	for g := 0; g < 8; g++ {
		relationType := types.RelationType(rune('a' + g))
		rules = append(rules, types.RelationRule{RelationType: relationType, Points: 1 + r.Intn(4)})
		for _, id := range ids {
			if r.Intn(3) == 0 {
				groups = append(groups, types.RelationGroup{RelationType: relationType, EntityID: id})
			}
		}
	}

	idx, err := relation.Build(groups, relation.WithKnownRelationTypes(relation.RelationTypesOf(rules)...))
	require.NoError(t, err)

	return Input{Entities: entities(ids...), Rules: rules, Index: idx, Focal: 1}
}

func friendFixture(t *testing.T) Input {
	t.Helper()
	idx, err := relation.Build([]types.RelationGroup{
		{RelationType: "friend", EntityID: 2},
		{RelationType: "friend", EntityID: 3},
	})
	require.NoError(t, err)

	return Input{
		Entities: entities(1, 2, 3, 4),
		Rules:    []types.RelationRule{{RelationType: "friend", Points: 10}},
		Index:    idx,
		Focal:    1,
	}
}
