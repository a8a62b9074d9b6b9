package simnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaintools/erlay-relay-sim/internal/peerid"
)

// TestHandshakeWiringIsSymmetric covers handshake symmetry and the
// no-self-connection invariant across a full harness wiring pass.
func TestHandshakeWiringIsSymmetric(t *testing.T) {
	h, err := NewHarness(Params{NumPublic: 3, NumPrivate: 2})
	require.NoError(t, err)
	h.Run()
	defer h.Stop()

	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			pi, _ := h.Peer(peerid.PublicID(uint32(i)))
			pj := peerid.PublicID(uint32(j))
			require.True(t, pi.HasOutbound(pj), "public %d should have public %d outbound", i, j)
			require.True(t, pi.HasInbound(pj), "public %d should have public %d inbound", i, j)
		}
		pi, _ := h.Peer(peerid.PublicID(uint32(i)))
		require.False(t, pi.HasOutbound(peerid.PublicID(uint32(i))))
		require.False(t, pi.HasInbound(peerid.PublicID(uint32(i))))
	}

	for i := 0; i < 2; i++ {
		priv, _ := h.Peer(peerid.PrivateID(uint32(i)))
		for j := 0; j < 3; j++ {
			pub := peerid.PublicID(uint32(j))
			require.True(t, priv.HasOutbound(pub))
			require.False(t, priv.HasInbound(pub))
		}
	}
}

// TestPlainFloodingReachesQuiescence covers plain-flooding quiescence: after
// quiescence, every peer's mempool holds one transaction per private peer.
func TestPlainFloodingReachesQuiescence(t *testing.T) {
	h, err := NewHarness(Params{NumPublic: 2, NumPrivate: 8, TxSize: 32})
	require.NoError(t, err)
	h.Run()
	defer h.Stop()

	time.Sleep(2 * time.Second)

	for i := 0; i < 8; i++ {
		p, ok := h.Peer(peerid.PrivateID(uint32(i)))
		require.True(t, ok)
		require.Equal(t, 8, p.MempoolLen(), "private peer %d", i)
	}
	for i := 0; i < 2; i++ {
		p, ok := h.Peer(peerid.PublicID(uint32(i)))
		require.True(t, ok)
		require.Equal(t, 8, p.MempoolLen(), "public peer %d", i)
	}
}

// TestErlayReachesQuiescence covers Erlay-mode quiescence: the same
// topology under reconciliation still converges, via low-fanout flood plus
// periodic reconciliation rounds.
func TestErlayReachesQuiescence(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on periodic reconciliation rounds")
	}
	h, err := NewHarness(Params{
		NumPublic:         2,
		NumPrivate:        8,
		UseReconciliation: true,
		TxSize:            32,
		ReconcileTimeout:  500 * time.Millisecond,
	})
	require.NoError(t, err)
	h.Run()
	defer h.Stop()

	time.Sleep(4 * time.Second)

	for i := 0; i < 2; i++ {
		p, ok := h.Peer(peerid.PublicID(uint32(i)))
		require.True(t, ok)
		require.Equal(t, 8, p.MempoolLen(), "public peer %d", i)
	}
}

// TestConservationInvariant covers the traffic-conservation invariant:
// total bytes_sent across all peers equals total bytes_received, since
// every message is accounted exactly once by its emitter and once by its
// receiver using the same size_bytes table.
func TestConservationInvariant(t *testing.T) {
	h, err := NewHarness(Params{NumPublic: 2, NumPrivate: 4, TxSize: 32})
	require.NoError(t, err)
	h.Run()
	defer h.Stop()

	time.Sleep(2 * time.Second)

	var totalSent, totalReceived uint64
	for i := 0; i < 2; i++ {
		p, _ := h.Peer(peerid.PublicID(uint32(i)))
		totalSent += p.BytesSent()
		totalReceived += p.BytesReceived()
	}
	for i := 0; i < 4; i++ {
		p, _ := h.Peer(peerid.PrivateID(uint32(i)))
		totalSent += p.BytesSent()
		totalReceived += p.BytesReceived()
	}
	require.Equal(t, totalSent, totalReceived)
}
