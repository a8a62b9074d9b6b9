package peer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/txpool"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

func newTestPeer(t *testing.T, id peerid.ID, capacity int) *Peer {
	t.Helper()
	p, _ := New(Config{ID: id, Capacity: capacity, TxSize: 32})
	return p
}

func rawAddr(id peerid.ID, buf int) (wire.Addr, chan wire.Message) {
	ch := make(chan wire.Message, buf)
	return wire.NewAddr(id, ch), ch
}

// TestConnectDropsSelf covers the no-self-connection invariant:
// a Connect announcing the peer's own ID must never populate inbound or
// outbound.
func TestConnectDropsSelf(t *testing.T) {
	a := newTestPeer(t, peerid.PublicID(0), 16)
	a.dispatch(wire.Connect{FromAddr: a.Addr(), FromID: a.id})

	require.Equal(t, 0, a.outbound.len())
	require.Equal(t, 0, a.inbound.len())
}

// TestConnectPublicPublicIsSymmetric covers the handshake-symmetry invariant: two
// public peers connecting to each other end up mutually outbound, and the
// receiving side replies with its own Connect.
func TestConnectPublicPublicIsSymmetric(t *testing.T) {
	a := newTestPeer(t, peerid.PublicID(0), 16)
	bAddr, bChan := rawAddr(peerid.PublicID(1), 4)

	a.dispatch(wire.Connect{FromAddr: bAddr, FromID: peerid.PublicID(1)})

	require.True(t, a.inbound.has(peerid.PublicID(1)))
	require.True(t, a.outbound.has(peerid.PublicID(1)))

	select {
	case msg := <-bChan:
		reply, ok := msg.(wire.Connect)
		require.True(t, ok)
		require.Equal(t, a.id, reply.FromID)
	default:
		t.Fatal("expected a's Connect reply on b's channel")
	}
}

// TestConnectPrivateNeverGetsBackConnect covers the asymmetric private→public
// handshake: a private peer connecting to a public one must not receive a
// Connect reply (it is never inserted into the public peer's outbound set).
func TestConnectPrivateNeverGetsBackConnect(t *testing.T) {
	a := newTestPeer(t, peerid.PublicID(0), 16)
	privAddr, privChan := rawAddr(peerid.PrivateID(0), 4)

	a.dispatch(wire.Connect{FromAddr: privAddr, FromID: peerid.PrivateID(0)})

	require.True(t, a.inbound.has(peerid.PrivateID(0)))
	require.False(t, a.outbound.has(peerid.PrivateID(0)))

	select {
	case msg := <-privChan:
		t.Fatalf("unexpected reply sent to private peer: %#v", msg)
	default:
	}
}

// TestPeerTxDeduplicates covers the mempool-dedup invariant: delivering the same
// payload twice must not grow the mempool past one entry.
func TestPeerTxDeduplicates(t *testing.T) {
	a := newTestPeer(t, peerid.PublicID(0), 16)
	tx := txpool.NewTx(32)
	tx[0] = 7

	a.dispatch(wire.PeerTx{From: peerid.PublicID(1), Data: tx})
	a.dispatch(wire.PeerTx{From: peerid.PublicID(1), Data: tx})

	require.Len(t, a.mempool, 1)
}

// TestTxRequestServesKnownAndIgnoresUnknown covers the TxRequest handler: a
// TxRequest for a held txid replies with PeerTx; an unknown txid is dropped
// silently.
func TestTxRequestServesKnownAndIgnoresUnknown(t *testing.T) {
	a := newTestPeer(t, peerid.PublicID(0), 16)
	tx := txpool.NewTx(32)
	tx[0] = 9
	txid := tx.ShortID()
	a.dispatch(wire.PeerTx{From: peerid.PublicID(1), Data: tx})

	reqAddr, reqChan := rawAddr(peerid.PublicID(2), 4)
	a.dispatch(wire.TxRequest{FromAddr: reqAddr, FromID: peerid.PublicID(2), TxID: txid})

	select {
	case msg := <-reqChan:
		pt, ok := msg.(wire.PeerTx)
		require.True(t, ok)
		require.Equal(t, tx, pt.Data)
	default:
		t.Fatal("expected a PeerTx reply for a known txid")
	}

	a.dispatch(wire.TxRequest{FromAddr: reqAddr, FromID: peerid.PublicID(2), TxID: txid + 1})
	select {
	case msg := <-reqChan:
		t.Fatalf("unexpected reply for unknown txid: %#v", msg)
	default:
	}
}

// TestReconcileRequestOverflowTriggersBisectRequest covers the capacity-overflow case at the Peer layer: when the
// symmetric difference exceeds capacity, the responder escalates to the
// bisection fallback instead of silently dropping the request.
func TestReconcileRequestOverflowTriggersBisectRequest(t *testing.T) {
	capacity := 16
	a := newTestPeer(t, peerid.PublicID(0), capacity)
	for i := uint64(0); i < 32; i++ {
		a.recSet.Insert(i)
	}

	bAddr, bChan := rawAddr(peerid.PublicID(1), 4)
	emptySketch := newTestPeer(t, peerid.PublicID(1), capacity).recSet.Sketch()

	a.dispatch(wire.ReconcileRequest{FromAddr: bAddr, FromID: peerid.PublicID(1), Sketch: emptySketch})

	select {
	case msg := <-bChan:
		br, ok := msg.(wire.BisectRequest)
		require.True(t, ok)
		require.Equal(t, a.id, br.FromID)
		require.NotEmpty(t, br.Whole)
		require.NotEmpty(t, br.Half)
	default:
		t.Fatal("expected a BisectRequest fallback on overflow")
	}
}

// TestBisectionFallbackRecoversFullDifference exercises a=0..32, b=0..8, capacity 16 — bisection must recover all 24 differing
// IDs as TxRequests back to the other side.
func TestBisectionFallbackRecoversFullDifference(t *testing.T) {
	capacity := 16
	a := newTestPeer(t, peerid.PublicID(0), capacity)
	for i := uint64(0); i < 32; i++ {
		a.recSet.Insert(i)
	}
	b := newTestPeer(t, peerid.PublicID(1), capacity)
	for i := uint64(0); i < 8; i++ {
		b.recSet.Insert(i)
	}

	b.dispatch(wire.BisectRequest{
		FromAddr: a.Addr(),
		FromID:   a.id,
		Whole:    a.recSet.Sketch(),
		Half:     a.recSet.HalfSketch(),
	})

	require.Len(t, a.inbox, 24)
}
