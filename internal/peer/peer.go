// Package peer implements the Erlay overlay endpoint: handshakes, mempool,
// reconciliation set, relay rules, and the three-message reconciliation
// exchange, realized as a single-threaded actor — a goroutine reading a
// buffered inbox channel.
package peer

import (
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/chaintools/erlay-relay-sim/internal/netlog"
	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/recset"
	"github.com/chaintools/erlay-relay-sim/internal/sketch"
	"github.com/chaintools/erlay-relay-sim/internal/txpool"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

// Capacity is the fixed reconciliation-set capacity: 128 elements.
const Capacity = 128

// floodFanout bounds the low-fanout flood's shuffled neighbour prefix: the
// first up to 8 outbound neighbours after shuffling.
const floodFanout = 8

// Config parameterises the construction of a Peer.
type Config struct {
	ID                peerid.ID
	UseReconciliation bool
	Capacity          int
	ReconcileTimeout  time.Duration
	TxSize            int
	Seed              uint64
	InboxSize         int
	Counter           wire.Addr
	Log               netlog.Logger
}

// Peer is a message-driven overlay endpoint. All of its fields are mutated
// exclusively by its own goroutine (see Run) — no state is shared mutably
// across peers.
type Peer struct {
	id   peerid.ID
	addr wire.Addr

	inbox chan wire.Message

	outbound *neighbors
	inbound  *neighbors

	mempool  txpool.Mempool
	received txpool.ReceivedTxs
	recSet   *recset.RecSet

	rng *xorShift128Plus

	bytesSent     uint64
	bytesReceived uint64

	counter wire.Addr

	useReconciliation bool
	reconcileTimeout  time.Duration
	txSize            int
	capacity          int

	// offered tracks, per plain-flood neighbour, the short IDs already sent
	// to or received from them. It only ever shrinks plain-flood traffic,
	// never the reconciliation path's measured cost, and is deliberately
	// not consulted by the low-fanout flood.
	offered map[peerid.ID]mapset.Set

	log  netlog.Logger
	stop <-chan struct{}
}

// New constructs a Peer and returns it together with the Addr other peers
// use to reach it. The peer is not yet running — call Run to start its
// goroutine.
func New(cfg Config) (*Peer, wire.Addr) {
	inboxSize := cfg.InboxSize
	if inboxSize <= 0 {
		inboxSize = 256
	}
	inbox := make(chan wire.Message, inboxSize)
	addr := wire.NewAddr(cfg.ID, inbox)

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = Capacity
	}

	lg := cfg.Log
	if lg == nil {
		lg = netlog.New()
	}

	p := &Peer{
		id:                cfg.ID,
		addr:              addr,
		inbox:             inbox,
		outbound:          newNeighbors(),
		inbound:           newNeighbors(),
		mempool:           txpool.NewMempool(),
		received:          txpool.NewReceivedTxs(),
		recSet:            recset.New(capacity),
		rng:               newXorShift128Plus(cfg.Seed),
		counter:           cfg.Counter,
		useReconciliation: cfg.UseReconciliation,
		reconcileTimeout:  cfg.ReconcileTimeout,
		txSize:            cfg.TxSize,
		capacity:          capacity,
		offered:           make(map[peerid.ID]mapset.Set),
		log:               lg.New("peer", cfg.ID.String()),
	}
	return p, addr
}

// Addr returns this peer's own delivery handle.
func (p *Peer) Addr() wire.Addr { return p.addr }

// ID returns this peer's identity.
func (p *Peer) ID() peerid.ID { return p.id }

// MempoolLen returns the number of distinct transactions held.
func (p *Peer) MempoolLen() int { return len(p.mempool) }

// HasOutbound reports whether id is in this peer's outbound table.
func (p *Peer) HasOutbound(id peerid.ID) bool { return p.outbound.has(id) }

// HasInbound reports whether id is in this peer's inbound table.
func (p *Peer) HasInbound(id peerid.ID) bool { return p.inbound.has(id) }

// OutboundLen returns the number of outbound neighbours.
func (p *Peer) OutboundLen() int { return p.outbound.len() }

// InboundLen returns the number of inbound neighbours.
func (p *Peer) InboundLen() int { return p.inbound.len() }

// BytesSent returns the peer's cumulative bytes_sent counter.
func (p *Peer) BytesSent() uint64 { return p.bytesSent }

// BytesReceived returns the peer's cumulative bytes_received counter.
func (p *Peer) BytesReceived() uint64 { return p.bytesReceived }

// PreconnectOutbound seeds the outbound table before the peer starts running,
// used by the harness to pre-populate a private peer's outbound set with
// every public peer ahead of the Connect wiring pass.
func (p *Peer) PreconnectOutbound(id peerid.ID, addr wire.Addr) {
	p.outbound.insert(id, addr)
}

// QueueHandshake asks the peer to emit its own Connect announcement to
// dst. The harness uses this for the initial overlay wiring pass instead
// of injecting the Connect directly into dst's inbox, so the send is
// attributed to its true origin peer's own bytesSent, keeping it balanced
// against the receiver's bytesReceived. Must be called after Run.
func (p *Peer) QueueHandshake(dst wire.Addr) {
	p.postTick(tickEmitHandshake{Dst: dst}, p.stop)
}

// Run starts the peer's dispatch loop and lifecycle timers. It returns
// immediately; the loop runs until stop is closed.
func (p *Peer) Run(stop <-chan struct{}) {
	p.stop = stop
	time.AfterFunc(time.Second, func() { p.postTick(tickSeedTx{}, stop) })
	time.AfterFunc(5*time.Second, func() { p.postTick(tickTrafficReport{}, stop) })
	if p.useReconciliation && p.reconcileTimeout > 0 {
		time.AfterFunc(p.reconcileTimeout, func() { p.postTick(tickReconcile{}, stop) })
	}

	go func() {
		for {
			select {
			case msg := <-p.inbox:
				p.dispatch(msg)
			case <-stop:
				return
			}
		}
	}()
}

// postTick delivers a timer-fired signal onto the peer's own inbox so timer
// work is serialized through the same single-threaded loop as every other
// handler: handler bodies run to completion without yielding to a timer
// mid-way through.
func (p *Peer) postTick(msg wire.Message, stop <-chan struct{}) {
	select {
	case p.inbox <- msg:
	case <-stop:
	}
}

// send delivers msg to addr and accounts its cost against bytes_sent by
// adding the outgoing message's SizeBytes().
func (p *Peer) send(addr wire.Addr, msg wire.Message) {
	addr.Send(msg)
	p.bytesSent += msg.SizeBytes()
}

func (p *Peer) dispatch(msg wire.Message) {
	p.bytesReceived += msg.SizeBytes()

	switch m := msg.(type) {
	case tickSeedTx:
		p.onSeedTxTimer()
	case tickTrafficReport:
		p.onTrafficReportTimer()
	case tickReconcile:
		p.onReconcileTimer(p.stop)
	case tickEmitHandshake:
		p.onEmitHandshake(m)
	case wire.Connect:
		p.onConnect(m)
	case wire.PeerTx:
		p.onPeerTx(m)
	case wire.ReconcileRequest:
		p.onReconcileRequest(m)
	case wire.ReconcileResult:
		p.onReconcileResult(m)
	case wire.BisectRequest:
		p.onBisectRequest(m)
	case wire.TxRequest:
		p.onTxRequest(m)
	default:
		p.log.Warn("dropping message of unknown type")
	}
}

// --- lifecycle timers ---

func (p *Peer) onSeedTxTimer() {
	if p.inbound.len() != 0 {
		return
	}
	if p.outbound.len() == 0 {
		return
	}
	tx := txpool.NewTx(p.txSize)
	p.rng.FillBytes(tx)

	firstID := p.outbound.ids()[0]
	addr, _ := p.outbound.addrOf(firstID)
	p.log.Debug("seeding transaction", "to", firstID)
	p.send(addr, wire.PeerTx{From: p.id, Data: tx})
}

func (p *Peer) onTrafficReportTimer() {
	p.send(p.counter, wire.TrafficReport{
		FromID:        p.id,
		BytesSent:     p.bytesSent,
		BytesReceived: p.bytesReceived,
	})
}

func (p *Peer) onReconcileTimer(stop <-chan struct{}) {
	if !p.useReconciliation {
		return
	}
	sk := p.recSet.Sketch()
	for _, id := range p.outbound.ids() {
		addr, _ := p.outbound.addrOf(id)
		p.send(addr, wire.ReconcileRequest{FromAddr: p.addr, FromID: p.id, Sketch: sk})
	}
	// Reconciliation is periodic: re-arm for another round (see DESIGN.md
	// Open Question 1).
	if p.reconcileTimeout > 0 {
		time.AfterFunc(p.reconcileTimeout, func() { p.postTick(tickReconcile{}, stop) })
	}
}

// --- message handlers ---

func (p *Peer) onEmitHandshake(m tickEmitHandshake) {
	p.send(m.Dst, wire.Connect{FromAddr: p.addr, FromID: p.id})
}

func (p *Peer) onConnect(m wire.Connect) {
	if m.FromID == p.id {
		return
	}
	if p.outbound.has(m.FromID) {
		return
	}
	p.inbound.insert(m.FromID, m.FromAddr)

	if m.FromID.Kind == peerid.Public && !p.outbound.has(m.FromID) {
		p.outbound.insert(m.FromID, m.FromAddr)
		p.log.Debug("connected", "peer", m.FromID)
		p.send(m.FromAddr, wire.Connect{FromAddr: p.addr, FromID: p.id})
	}
}

func (p *Peer) onPeerTx(m wire.PeerTx) {
	txid, inserted := p.mempool.Insert(m.Data)
	if !inserted {
		return
	}
	p.recSet.Insert(txid)
	p.received.Record(m.From, txid)
	p.markKnown(m.From, txid)

	if p.useReconciliation {
		if p.id.Kind == peerid.Public {
			p.floodLowFanout(m.Data)
		}
		return
	}
	p.floodPlain(m.From, m.Data, txid)
}

// floodLowFanout re-emits a transaction to a shuffled prefix of up to
// floodFanout outbound neighbours — the Erlay-mode relay rule for publicly
// reachable peers.
func (p *Peer) floodLowFanout(tx txpool.Tx) {
	ids := append([]peerid.ID(nil), p.outbound.ids()...)
	p.shuffleIDs(ids)
	n := len(ids)
	if n > floodFanout {
		n = floodFanout
	}
	// Unlike floodPlain, the low-fanout flood does not consult the
	// already-offered bookkeeping: that enrichment is scoped to the
	// plain-flood path only, so it never perturbs the measured Erlay
	// relay cost against plain flooding.
	for _, id := range ids[:n] {
		addr, ok := p.outbound.addrOf(id)
		if !ok {
			continue
		}
		p.send(addr, wire.PeerTx{From: p.id, Data: tx})
	}
}

// floodPlain re-emits to every outbound and inbound neighbour except from —
// the plain-flooding relay rule.
func (p *Peer) floodPlain(from peerid.ID, tx txpool.Tx, txid uint64) {
	seen := make(map[peerid.ID]struct{})
	emit := func(id peerid.ID, addr wire.Addr) {
		if id == from {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		if p.alreadyKnown(id, txid) {
			return
		}
		p.markKnown(id, txid)
		p.send(addr, wire.PeerTx{From: p.id, Data: tx})
	}
	for _, id := range p.outbound.ids() {
		addr, _ := p.outbound.addrOf(id)
		emit(id, addr)
	}
	for _, id := range p.inbound.ids() {
		addr, _ := p.inbound.addrOf(id)
		emit(id, addr)
	}
}

func (p *Peer) alreadyKnown(neighbour peerid.ID, txid uint64) bool {
	s, ok := p.offered[neighbour]
	return ok && s.Contains(txid)
}

func (p *Peer) markKnown(neighbour peerid.ID, txid uint64) {
	s, ok := p.offered[neighbour]
	if !ok {
		s = mapset.NewThreadUnsafeSet()
		p.offered[neighbour] = s
	}
	s.Add(txid)
}

func (p *Peer) onReconcileRequest(m wire.ReconcileRequest) {
	missing, err := p.recSet.ReconcileWith(m.Sketch)
	switch {
	case err == nil:
		p.send(m.FromAddr, wire.ReconcileResult{FromAddr: p.addr, FromID: p.id, Missing: missing})
	case err == sketch.ErrOverCapacity:
		p.send(m.FromAddr, wire.BisectRequest{
			FromAddr: p.addr,
			FromID:   p.id,
			Whole:    p.recSet.Sketch(),
			Half:     p.recSet.HalfSketch(),
		})
	default:
		p.log.Warn("dropping malformed reconcile request", "from", m.FromID, "err", err)
	}
}

func (p *Peer) onReconcileResult(m wire.ReconcileResult) {
	p.log.Trace("reconcile result", "from", m.FromID, "n", len(m.Missing), "digest", m.DebugDigest())
	for _, txid := range m.Missing {
		p.send(m.FromAddr, wire.TxRequest{FromAddr: p.addr, FromID: p.id, TxID: txid})
	}
}

func (p *Peer) onBisectRequest(m wire.BisectRequest) {
	aWhole := p.recSet.Sketch()
	aHalf := p.recSet.HalfSketch()
	diffs, err := recset.BisectWith(aWhole, aHalf, m.Whole, m.Half, p.capacity, nil)
	if err != nil {
		p.log.Warn("bisection fallback failed", "from", m.FromID, "err", err)
		return
	}
	for _, txid := range diffs {
		p.send(m.FromAddr, wire.TxRequest{FromAddr: p.addr, FromID: p.id, TxID: txid})
	}
}

func (p *Peer) onTxRequest(m wire.TxRequest) {
	tx, ok := p.mempool[m.TxID]
	if !ok {
		return
	}
	p.send(m.FromAddr, wire.PeerTx{From: p.id, Data: tx})
}

// --- internal timer-signal message types ---
//
// These never cross a real wire — they are posted by time.AfterFunc onto a
// peer's own inbox so timer-fired work is serialized through the same
// single-threaded dispatch loop as every other handler. SizeBytes is 0:
// they are outside the traffic-accounting table entirely.

type tickSeedTx struct{}

func (tickSeedTx) SizeBytes() uint64 { return 0 }

type tickTrafficReport struct{}

func (tickTrafficReport) SizeBytes() uint64 { return 0 }

type tickReconcile struct{}

func (tickReconcile) SizeBytes() uint64 { return 0 }

// tickEmitHandshake carries a harness-requested outbound Connect through
// the peer's own inbox, so the resulting send runs on the peer's own
// dispatch goroutine and is credited against its own bytesSent, the same
// as every other outgoing message.
type tickEmitHandshake struct {
	Dst wire.Addr
}

func (tickEmitHandshake) SizeBytes() uint64 { return 0 }

// shuffleIDs performs an in-place Fisher-Yates shuffle of ids driven by p's
// xorshift128+ generator, so outbound neighbour order for low-fanout flood
// is deterministic given the peer's seed but otherwise unpredictable.
func (p *Peer) shuffleIDs(ids []peerid.ID) {
	for i := len(ids) - 1; i > 0; i-- {
		j := int(p.rng.Next() % uint64(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
}
