package types

import (
	"fmt"
	"strconv"
)

// EntityID identifies a character. Zero is never a valid id.
type EntityID int64

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Entity is immutable reference data loaded once per run.
type Entity struct {
	ID   EntityID `json:"id"`
	Name string   `json:"name"`
}

// RelationType names a relationship category. Several rules may share one.
type RelationType string

// RelationRule awards Points for every condition satisfied within the group of
// its RelationType.
type RelationRule struct {
	RelationType RelationType `json:"relation_type"`
	Points       int          `json:"points"`
}

// RelationGroup records that EntityID belongs to RelationType.
type RelationGroup struct {
	RelationType RelationType `json:"relation_type"`
	EntityID     EntityID     `json:"entity_id"`
}

// Pair is an unordered pair of distinct candidates, stored in enumeration order.
type Pair struct {
	A EntityID `json:"a"`
	B EntityID `json:"b"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.A, p.B)
}

// Assignment is one complete family: parents O and K, grandparents Z and J on
// the O side and X and Y on the K side.
type Assignment struct {
	O     EntityID `json:"o"`
	Z     EntityID `json:"z"`
	J     EntityID `json:"j"`
	K     EntityID `json:"k"`
	X     EntityID `json:"x"`
	Y     EntityID `json:"y"`
	Score int      `json:"score"`
}

// IDs returns the six slots in display order O, Z, J, K, X, Y.
func (a Assignment) IDs() [6]EntityID {
	return [6]EntityID{a.O, a.Z, a.J, a.K, a.X, a.Y}
}

// EntityIDs returns the ids of the given entities, preserving order.
func EntityIDs(entities []Entity) []EntityID {
	ids := make([]EntityID, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}
