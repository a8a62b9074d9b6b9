// Package wire defines the in-memory message envelopes exchanged between
// peers and the traffic counter, and the authoritative SizeBytes() table
// used for bandwidth accounting: the logical on-wire size a real
// deployment would have paid, not the in-process Go allocation size.
package wire

import (
	"github.com/cespare/xxhash/v2"

	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/txpool"
)

// Message is anything that can be dispatched through a peer's inbox and
// costed for traffic accounting.
type Message interface {
	SizeBytes() uint64
}

// Addr is a non-owning handle to a peer's (or the counter's) inbox: it
// grants delivery capability only, never lifecycle control. The harness is
// the only party that constructs these from a real inbox channel; everyone
// else only ever copies a received Addr around.
type Addr struct {
	ID    peerid.ID
	inbox chan<- Message
}

// NewAddr wraps a send-only inbox channel with its owner's ID.
func NewAddr(id peerid.ID, inbox chan<- Message) Addr {
	return Addr{ID: id, inbox: inbox}
}

// Send enqueues msg on the target's inbox. Inboxes are sized generously
// (see simnet.InboxCapacity) so that, at this simulator's scale, delivery
// is effectively guaranteed: unlike a fire-and-forget broadcast that drops
// under backpressure, this simulation relies on every message being
// delivered exactly once so the sent/received traffic conservation
// invariant holds.
func (a Addr) Send(msg Message) (delivered bool) {
	a.inbox <- msg
	return true
}

// Connect announces a directed overlay edge from from_id (reachable at
// FromAddr) to the recipient.
type Connect struct {
	FromAddr Addr
	FromID   peerid.ID
}

// SizeBytes: sizeof(PeerId).
func (Connect) SizeBytes() uint64 { return peerid.SizeBytes }

// PeerTx relays a transaction payload from From.
type PeerTx struct {
	From peerid.ID
	Data txpool.Tx
}

// SizeBytes: sizeof(Tx) + sizeof(PeerId).
func (m PeerTx) SizeBytes() uint64 {
	return uint64(len(m.Data)) + peerid.SizeBytes
}

// ReconcileRequest carries a serialized sketch for the recipient to
// reconcile against its own reconciliation set.
type ReconcileRequest struct {
	FromAddr Addr
	FromID   peerid.ID
	Sketch   []byte
}

// SizeBytes: sizeof(PeerId) + len(sketch).
func (m ReconcileRequest) SizeBytes() uint64 {
	return peerid.SizeBytes + uint64(len(m.Sketch))
}

// ReconcileResult carries the decoded symmetric difference back to the
// requester.
type ReconcileResult struct {
	FromAddr Addr
	FromID   peerid.ID
	Missing  []uint64
}

// SizeBytes: sizeof(PeerId) + 8*len(missing).
func (m ReconcileResult) SizeBytes() uint64 {
	return peerid.SizeBytes + 8*uint64(len(m.Missing))
}

// DebugDigest returns a cheap 64-bit fingerprint of the Missing list, for
// logging a large reconciliation result at Trace level without dumping it
// element-by-element.
func (m ReconcileResult) DebugDigest() uint64 {
	var buf [8]byte
	h := xxhash.New()
	for _, id := range m.Missing {
		for i := 0; i < 8; i++ {
			buf[i] = byte(id >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// BisectRequest is the bisection-fallback reply to a ReconcileRequest whose
// sketch failed to decode against the responder's reconciliation set
// (symmetric difference over capacity). It carries the responder's own
// whole and half sketches so the original requester can complete both
// halves of the bisection locally (see DESIGN.md Open Question 4).
type BisectRequest struct {
	FromAddr   Addr
	FromID     peerid.ID
	Whole      []byte
	Half       []byte
}

// SizeBytes: sizeof(PeerId) + len(whole) + len(half).
func (m BisectRequest) SizeBytes() uint64 {
	return peerid.SizeBytes + uint64(len(m.Whole)) + uint64(len(m.Half))
}

// TxRequest asks the recipient to send the transaction behind txid, if it
// has one.
type TxRequest struct {
	FromAddr Addr
	FromID   peerid.ID
	TxID     uint64
}

// SizeBytes: sizeof(PeerId) + 8.
func (TxRequest) SizeBytes() uint64 { return peerid.SizeBytes + 8 }

// TrafficReport is a peer's self-reported cumulative traffic snapshot sent
// to the traffic counter. It is accounted for by the counter's own
// bookkeeping, not folded into the grand total a second time (it is a
// control message about the simulation, not simulated network traffic).
type TrafficReport struct {
	FromID       peerid.ID
	BytesSent    uint64
	BytesReceived uint64
}

// SizeBytes is not part of the authoritative accounting table (TrafficReport
// is harness-internal telemetry), but the type still satisfies Message so
// it can travel the same inbox/dispatch machinery as every other message.
func (TrafficReport) SizeBytes() uint64 { return 0 }
