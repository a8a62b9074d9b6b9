// Package simnet implements the simulation harness: given a topology and
// mode, it spawns the traffic counter and every peer with deterministic
// identities, then performs the initial Connect wiring pass before handing
// control to the runtime's timers and handlers.
package simnet

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/chaintools/erlay-relay-sim/internal/netlog"
	"github.com/chaintools/erlay-relay-sim/internal/peer"
	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/traffic"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

// InboxCapacity sizes every peer's mailbox channel generously enough that,
// at this simulator's scale (low hundreds of peers, low thousands of
// messages per run), wire.Addr.Send's guaranteed-delivery contract never
// has to block the sender on a full channel.
const InboxCapacity = 4096

// DefaultReconcilTimeout is the default reconciliation-round interval.
const DefaultReconcilTimeout = 2 * time.Second

// Params configures a single simulation run.
type Params struct {
	NumPublic         int
	NumPrivate        int
	UseReconciliation bool
	Seed              *uint64
	TxSize            int
	ReconcileTimeout  time.Duration
	Log               netlog.Logger
}

// Validate reports configuration errors that should produce a non-zero
// exit code (e.g. enabling reconciliation with no public peer to
// reconcile against).
func (p Params) Validate() error {
	if p.NumPublic < 0 || p.NumPrivate < 0 {
		return errors.New("simnet: peer counts must be non-negative")
	}
	if p.UseReconciliation && p.NumPublic == 0 {
		return errors.New("simnet: reconciliation mode requires at least one public peer")
	}
	if p.TxSize < 0 {
		return errors.New("simnet: txsize must not be negative")
	}
	return nil
}

func (p Params) withDefaults() Params {
	if p.TxSize <= 0 {
		p.TxSize = 1024
	}
	if p.ReconcileTimeout <= 0 {
		p.ReconcileTimeout = DefaultReconcilTimeout
	}
	if p.Log == nil {
		p.Log = netlog.New()
	}
	return p
}

// Harness owns the lifetime of a single simulation run's peers and counter.
type Harness struct {
	params  Params
	counter *traffic.Counter
	peers   map[peerid.ID]*peer.Peer
	stop    chan struct{}
}

// NewHarness validates params and constructs a Harness ready to Run.
func NewHarness(params Params) (*Harness, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Harness{
		params: params.withDefaults(),
		peers:  make(map[peerid.ID]*peer.Peer),
		stop:   make(chan struct{}),
	}, nil
}

// peerSeed unifies the PeerID-derived seed with an optional global CLI
// override by XORing the two together, so a --seed flag perturbs every
// peer's stream reproducibly without collapsing distinct peers onto the
// same sequence (see DESIGN.md Open Question 2).
func peerSeed(id peerid.ID, override *uint64) uint64 {
	s := id.Uint64()
	if override != nil {
		s ^= *override
	}
	return s
}

// Run spawns the counter and every peer, wires the initial overlay, and
// starts all timers/dispatch loops. It returns immediately; callers wait
// on Done for the grand total.
func (h *Harness) Run() {
	lg := h.params.Log
	banner := color.New(color.FgCyan, color.Bold).Sprintf(
		"erlay-sim: %d public, %d private, reconciliation=%v",
		h.params.NumPublic, h.params.NumPrivate, h.params.UseReconciliation,
	)
	fmt.Println(banner)

	deadline := traffic.Deadline(h.params.NumPublic, h.params.NumPrivate)
	h.counter, _ = traffic.New(deadline, lg)
	h.counter.Run(h.stop)

	publicAddrs := make(map[peerid.ID]wire.Addr, h.params.NumPublic)
	for i := 0; i < h.params.NumPublic; i++ {
		id := peerid.PublicID(uint32(i))
		p, addr := peer.New(peer.Config{
			ID:                id,
			UseReconciliation: h.params.UseReconciliation,
			Capacity:          peer.Capacity,
			ReconcileTimeout:  h.params.ReconcileTimeout,
			TxSize:            h.params.TxSize,
			Seed:              peerSeed(id, h.params.Seed),
			InboxSize:         InboxCapacity,
			Counter:           h.counter.Addr(),
			Log:               lg,
		})
		h.peers[id] = p
		publicAddrs[id] = addr
	}

	for i := 0; i < h.params.NumPrivate; i++ {
		id := peerid.PrivateID(uint32(i))
		p, _ := peer.New(peer.Config{
			ID:                id,
			UseReconciliation: h.params.UseReconciliation,
			Capacity:          peer.Capacity,
			ReconcileTimeout:  h.params.ReconcileTimeout,
			TxSize:            h.params.TxSize,
			Seed:              peerSeed(id, h.params.Seed),
			InboxSize:         InboxCapacity,
			Counter:           h.counter.Addr(),
			Log:               lg,
		})
		// Pre-populate every private peer's outbound with every public
		// peer, ahead of any Connect wiring. Iterated by index rather than
		// ranging publicAddrs directly so insertion order (and hence which
		// neighbour is "first" for the seed-tx timer) is deterministic
		// given a fixed seed — Go map iteration order is randomized.
		for j := 0; j < h.params.NumPublic; j++ {
			pubID := peerid.PublicID(uint32(j))
			p.PreconnectOutbound(pubID, publicAddrs[pubID])
		}
		h.peers[id] = p
	}

	for _, p := range h.peers {
		p.Run(h.stop)
	}

	// Public<->public full mesh. Each Connect is queued on its origin
	// peer's own inbox (QueueHandshake) rather than injected straight into
	// the destination's inbox, so the send is attributed to the origin's
	// own bytesSent and stays balanced against the destination's
	// bytesReceived.
	for i := 0; i < h.params.NumPublic; i++ {
		for j := 0; j < h.params.NumPublic; j++ {
			if i == j {
				continue
			}
			src := peerid.PublicID(uint32(i))
			dst := peerid.PublicID(uint32(j))
			h.peers[src].QueueHandshake(h.peers[dst].Addr())
		}
	}

	// Private->public fan-out.
	for i := 0; i < h.params.NumPrivate; i++ {
		src := peerid.PrivateID(uint32(i))
		for j := 0; j < h.params.NumPublic; j++ {
			dst := peerid.PublicID(uint32(j))
			h.peers[src].QueueHandshake(h.peers[dst].Addr())
		}
	}
}

// Done returns a channel delivering the grand-total byte count exactly once,
// when the traffic counter's deadline fires.
func (h *Harness) Done() <-chan uint64 { return h.counter.Done() }

// Stop tears down every peer and the counter goroutine. Safe to call after
// Done has fired, or to abort a run early (e.g. in tests).
func (h *Harness) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}

// Peer exposes a spawned peer by ID, for tests inspecting post-quiescence
// state (mempool size, outbound/inbound tables).
func (h *Harness) Peer(id peerid.ID) (*peer.Peer, bool) {
	p, ok := h.peers[id]
	return p, ok
}
