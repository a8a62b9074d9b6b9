package peer

import (
	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

// neighbors tracks a set of peer addresses together with their insertion
// order. Neighbour iteration must be deterministic given a fixed insertion
// order — a plain Go map alone does not provide that, since Go randomizes
// map iteration order, so order is tracked alongside it.
type neighbors struct {
	addrs map[peerid.ID]wire.Addr
	order []peerid.ID
}

func newNeighbors() *neighbors {
	return &neighbors{addrs: make(map[peerid.ID]wire.Addr)}
}

func (n *neighbors) has(id peerid.ID) bool {
	_, ok := n.addrs[id]
	return ok
}

func (n *neighbors) insert(id peerid.ID, addr wire.Addr) {
	if _, ok := n.addrs[id]; ok {
		return
	}
	n.addrs[id] = addr
	n.order = append(n.order, id)
}

func (n *neighbors) len() int { return len(n.order) }

// ids returns the neighbour IDs in insertion order. The caller must not
// mutate the returned slice.
func (n *neighbors) ids() []peerid.ID { return n.order }

func (n *neighbors) addrOf(id peerid.ID) (wire.Addr, bool) {
	a, ok := n.addrs[id]
	return a, ok
}
