// Package scoring implements the additive relation-points compatibility rule.
//
// For every rule with group G and points p a family (O, K, Z, J, X, Y) around
// the focal character earns:
//
//	O∈G and K∈G                          +p
//	O∈G and focal∈G                      +p, plus +p for each of Z, J in G (≠ focal)
//	K∈G and focal∈G                      +p, plus +p for each of X, Y in G (≠ focal)
//
// Conditions are independent: several may fire for the same rule.
package scoring

import (
	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/types"
)

type compiledRule struct {
	points int
	group  *relation.Set
}

// Scorer evaluates families against an ordered rule list. It is read-only after
// New and may be shared by any number of goroutines.
type Scorer struct {
	rules []compiledRule
}

// New resolves the group of every rule once. Rules whose relation type has no
// members never contribute points.
func New(rules []types.RelationRule, index *relation.Index) *Scorer {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, compiledRule{
			points: r.Points,
			group:  index.Members(r.RelationType),
		})
	}
	return &Scorer{rules: compiled}
}

// Score returns the compatibility of the full family.
func (s *Scorer) Score(focal, o, k, z, j, x, y types.EntityID) int {
	score := 0
	for _, r := range s.rules {
		g := r.group
		inO, inK, inFocal := g.Contains(o), g.Contains(k), g.Contains(focal)

		if inO && inK {
			score += r.points
		}
		if inO && inFocal {
			score += r.points
			if g.Contains(z) && z != focal {
				score += r.points
			}
			if g.Contains(j) && j != focal {
				score += r.points
			}
		}
		if inK && inFocal {
			score += r.points
			if g.Contains(x) && x != focal {
				score += r.points
			}
			if g.Contains(y) && y != focal {
				score += r.points
			}
		}
	}
	return score
}

// PairScore scores the parents alone: the grandparent clauses never fire.
func (s *Scorer) PairScore(focal, o, k types.EntityID) int {
	score := 0
	for _, r := range s.rules {
		g := r.group
		inO, inK, inFocal := g.Contains(o), g.Contains(k), g.Contains(focal)

		if inO && inK {
			score += r.points
		}
		if inO && inFocal {
			score += r.points
		}
		if inK && inFocal {
			score += r.points
		}
	}
	return score
}

// Bound is a Scorer specialised to one focal character and parent pair.
//
// With the parents fixed, a grandparent's contribution no longer depends on the
// other slots, so Score reduces to a constant plus four table lookups.
type Bound struct {
	focal types.EntityID
	o, k  types.EntityID
	base  int

	// weightO[c] is the sum of points of the rules where O and focal share a
	// group that also holds c. weightK is the same for K.
	weightO map[types.EntityID]int
	weightK map[types.EntityID]int
}

// Bind precomputes the parts of Score that depend only on focal, o and k.
func (s *Scorer) Bind(focal, o, k types.EntityID) *Bound {
	b := &Bound{
		focal:   focal,
		o:       o,
		k:       k,
		base:    s.PairScore(focal, o, k),
		weightO: make(map[types.EntityID]int),
		weightK: make(map[types.EntityID]int),
	}

	for _, r := range s.rules {
		g := r.group
		if !g.Contains(focal) {
			continue
		}
		if g.Contains(o) {
			addWeights(b.weightO, g, focal, r.points)
		}
		if g.Contains(k) {
			addWeights(b.weightK, g, focal, r.points)
		}
	}
	return b
}

func addWeights(weights map[types.EntityID]int, g *relation.Set, focal types.EntityID, points int) {
	for _, member := range g.Values() {
		if member == focal {
			continue
		}
		weights[member] += points
	}
}

// Base is the parent pair score shared by every family of this pair.
func (b *Bound) Base() int {
	return b.base
}

// SideO returns the contribution of the grandparents attached to O.
func (b *Bound) SideO(z, j types.EntityID) int {
	return b.weightO[z] + b.weightO[j]
}

// SideK returns the contribution of the grandparents attached to K.
func (b *Bound) SideK(x, y types.EntityID) int {
	return b.weightK[x] + b.weightK[y]
}

// Score equals Scorer.Score(focal, o, k, z, j, x, y) for the bound focal, o and k.
func (b *Bound) Score(z, j, x, y types.EntityID) int {
	return b.base + b.SideO(z, j) + b.SideK(x, y)
}
