package search

import (
	"context"

	"github.com/umafamily/affinity/pkg/scoring"
	"github.com/umafamily/affinity/pkg/types"
)

// Unit is the self-contained work for one retained parent pair: every O-side
// grandparent pair crossed with every K-side grandparent pair.
type Unit struct {
	// Rank is the position of Parents among the retained pairs.
	Rank    int
	Focal   types.EntityID
	Parents types.Pair
	SideO   []types.Pair
	SideK   []types.Pair
}

// Combinations is the number of families the unit scores.
func (u Unit) Combinations() int {
	return len(u.SideO) * len(u.SideK)
}

func (u Unit) assignment(o, k types.Pair, score int) types.Assignment {
	return types.Assignment{
		O: u.Parents.A, Z: o.A, J: o.B,
		K: u.Parents.B, X: k.A, Y: k.B,
		Score: score,
	}
}

// sideScores returns, for one side, the contribution of each grandparent pair.
func sideScores(pairs []types.Pair, score func(a, b types.EntityID) int) []int {
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = score(p.A, p.B)
	}
	return out
}

// Process scores every family of u and returns them in enumeration order
// (O-side major, K-side minor). It holds no state besides its arguments, so
// any number of units may run concurrently.
func Process(ctx context.Context, s *scoring.Scorer, u Unit) ([]types.Assignment, error) {
	b := s.Bind(u.Focal, u.Parents.A, u.Parents.B)
	scoresO := sideScores(u.SideO, b.SideO)
	scoresK := sideScores(u.SideK, b.SideK)

	out := make([]types.Assignment, 0, u.Combinations())
	for i, o := range u.SideO {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, k := range u.SideK {
			out = append(out, u.assignment(o, k, b.Base()+scoresO[i]+scoresK[j]))
		}
	}
	return out, nil
}

// ProcessTop scores every family of u like Process but keeps only the best k,
// best first, ties in enumeration order. The result always equals the first k
// entries of Process after a stable sort by score.
func ProcessTop(ctx context.Context, s *scoring.Scorer, u Unit, k int) ([]types.Assignment, error) {
	if k <= 0 {
		return nil, nil
	}

	b := s.Bind(u.Focal, u.Parents.A, u.Parents.B)
	scoresO := sideScores(u.SideO, b.SideO)
	scoresK := sideScores(u.SideK, b.SideK)

	top := newTopK(k)
	seq := 0
	for i, o := range u.SideO {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, kp := range u.SideK {
			score := b.Base() + scoresO[i] + scoresK[j]
			// seq only grows, so a tie with the floor can never win.
			if top.full() && score <= top.floor() {
				seq++
				continue
			}
			top.offer(candidate{assignment: u.assignment(o, kp, score), seq: seq})
			seq++
		}
	}
	return top.sorted(), nil
}
