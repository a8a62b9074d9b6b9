package traffic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

func TestDeadlineFormula(t *testing.T) {
	// ceil(0.57*num_private + 1.0*num_public), floored.
	// 8 private / 2 public -> ceil(6.56) = 7s, below MinDeadline's floor.
	require.Equal(t, MinDeadline, Deadline(2, 8))
}

func TestDeadlineFloorsAtMinimum(t *testing.T) {
	require.Equal(t, MinDeadline, Deadline(1, 1))
}

func TestDeadlineExceedsFloorForLargeTopologies(t *testing.T) {
	d := Deadline(2, 40)
	require.Greater(t, d, MinDeadline)
}

// TestCounterLastWriterWinsAndEmitsGrandTotal covers last-writer-wins
// aggregation: repeated reports from the same peer overwrite rather than
// accumulate, and the grand total sums bytes_sent+bytes_received across
// all peers' latest snapshots.
func TestCounterLastWriterWinsAndEmitsGrandTotal(t *testing.T) {
	c, addr := New(150*time.Millisecond, nil)
	stop := make(chan struct{})
	defer close(stop)
	c.Run(stop)

	addr.Send(wire.TrafficReport{FromID: peerid.PublicID(0), BytesSent: 100, BytesReceived: 10})
	addr.Send(wire.TrafficReport{FromID: peerid.PublicID(0), BytesSent: 200, BytesReceived: 20})
	addr.Send(wire.TrafficReport{FromID: peerid.PublicID(1), BytesSent: 5, BytesReceived: 5})

	select {
	case total := <-c.Done():
		require.Equal(t, uint64(230), total)
	case <-time.After(2 * time.Second):
		t.Fatal("counter did not emit a grand total before the deadline")
	}
}
