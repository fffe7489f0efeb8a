package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/metrics"
)

// Treap-based, in-memory best-round leaderboard.
//
// Ordering: best score ASC (fewer strokes rank earlier), then userID ASC.
// In-order traversal yields the leaderboard from best to worst. Every node
// carries its subtree size so ranks are answered in O(log n).

// Leaderboard provides read/write access to the best-round ranking.
type Leaderboard interface {
	// UpdateBest records score for user if it beats the stored best.
	// Returns true when the stored best changed.
	UpdateBest(ctx context.Context, userID string, score int, roundID string) (bool, error)

	// Rank returns the user's entry. Returns ErrNotFound for unknown users.
	Rank(ctx context.Context, userID string) (model.LeaderboardEntry, error)

	// TopN returns the n best entries, best first.
	TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context) int
}

type record struct {
	score   int
	roundID string
}

type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBelow returns how many nodes have a strictly lower score.
func countBelow(n *node, score int) int {
	count := 0
	for n != nil {
		if n.score < score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapLeaderboard is the in-memory Leaderboard.
type TreapLeaderboard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	rnd  *rand.Rand
}

// NewLeaderboard constructs an empty leaderboard.
func NewLeaderboard(opts ...Option) *TreapLeaderboard {
	l := &TreapLeaderboard{
		byID: make(map[string]record),
		rnd:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UpdateBest keeps the lower of the stored and the new score in O(log n)
// expected time. Scores below 1 are ignored.
func (l *TreapLeaderboard) UpdateBest(ctx context.Context, userID string, score int, roundID string) (bool, error) {
	if score < 1 {
		return false, ErrInvalidScore
	}

	l.mu.Lock()
	if old, ok := l.byID[userID]; ok {
		if score >= old.score {
			l.mu.Unlock()
			return false, nil
		}
		l.root = deleteNode(l.root, userID, old.score)
	}
	l.byID[userID] = record{score: score, roundID: roundID}
	l.root = insert(l.root, userID, score, l.rnd.Uint64())
	count := len(l.byID)
	l.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateLeaderboardPlayers(count)
	return true, nil
}

// Rank returns the user's competition rank: players sharing a best score
// share a rank and the next rank skips accordingly.
func (l *TreapLeaderboard) Rank(ctx context.Context, userID string) (model.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byID[userID]
	if !ok {
		metrics.RecordErrorByComponent("leaderboard", "not_found")
		return model.LeaderboardEntry{}, ErrNotFound
	}
	return model.LeaderboardEntry{
		Rank:      countBelow(l.root, rec.score) + 1,
		UserID:    userID,
		BestScore: rec.score,
		RoundID:   rec.roundID,
	}, nil
}

// TopN returns the n best entries.
func (l *TreapLeaderboard) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("leaderboard", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(l.byID)))
	collectTopN(l.root, n, &nodes)

	out := make([]model.LeaderboardEntry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.score == nodes[i-1].score {
			rank = out[i-1].Rank
		}
		out[i] = model.LeaderboardEntry{
			Rank:      rank,
			UserID:    nd.id,
			BestScore: nd.score,
			RoundID:   l.byID[nd.id].roundID,
		}
	}
	return out, nil
}

// Count returns the number of ranked users.
func (l *TreapLeaderboard) Count(ctx context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}
