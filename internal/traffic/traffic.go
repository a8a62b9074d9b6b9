// Package traffic implements the TrafficCounter actor: it accumulates
// per-peer cumulative traffic reports and, on a fixed deadline, folds them
// into a single grand total and signals completion.
package traffic

import (
	"fmt"
	"math"
	"time"

	"github.com/chaintools/erlay-relay-sim/internal/netlog"
	"github.com/chaintools/erlay-relay-sim/internal/peerid"
	"github.com/chaintools/erlay-relay-sim/internal/wire"
)

// MinDeadline is the floor applied to the computed deadline so that, at
// small topologies, at least one periodic reconciliation round has time to
// fire before the counter ends the run (see DESIGN.md, "Additional judgment
// calls").
const MinDeadline = 10 * time.Second

// Deadline computes the run's traffic-aggregation deadline as
// ceil(0.57*numPrivate + 1.0*numPublic) seconds, floored at MinDeadline.
func Deadline(numPublic, numPrivate int) time.Duration {
	secs := math.Ceil(0.57*float64(numPrivate) + 1.0*float64(numPublic))
	d := time.Duration(secs) * time.Second
	if d < MinDeadline {
		return MinDeadline
	}
	return d
}

// entry is a peer's last-reported cumulative traffic snapshot.
type entry struct {
	bytesSent     uint64
	bytesReceived uint64
}

// Counter is the TrafficCounter actor: a goroutine reading a buffered inbox
// of wire.TrafficReport messages, last-writer-wins per peer, that folds and
// emits a grand total when its deadline fires.
type Counter struct {
	inbox    chan wire.Message
	addr     wire.Addr
	entries  map[peerid.ID]entry
	deadline time.Duration
	done     chan uint64
	log      netlog.Logger
}

// New constructs a Counter with the given reporting deadline.
func New(deadline time.Duration, log netlog.Logger) (*Counter, wire.Addr) {
	if log == nil {
		log = netlog.New()
	}
	inbox := make(chan wire.Message, 256)
	// The counter is not a peer and never appears in any peer's outbound or
	// inbound tables; this sentinel ID only labels its Addr for logging and
	// is chosen clear of the Public/Private(i) embeddings a real topology
	// produces.
	addr := wire.NewAddr(peerid.PrivateID(1<<31), inbox)
	c := &Counter{
		inbox:    inbox,
		addr:     addr,
		entries:  make(map[peerid.ID]entry),
		deadline: deadline,
		done:     make(chan uint64, 1),
		log:      log.New("component", "traffic"),
	}
	return c, addr
}

// Addr returns the counter's delivery handle, for peers to report to.
func (c *Counter) Addr() wire.Addr { return c.addr }

// Done returns a channel that receives the grand total exactly once, when
// the deadline fires.
func (c *Counter) Done() <-chan uint64 { return c.done }

// Run starts the counter's dispatch loop and deadline timer.
func (c *Counter) Run(stop <-chan struct{}) {
	timer := time.AfterFunc(c.deadline, func() {
		select {
		case c.inbox <- deadlineTick{}:
		case <-stop:
		}
	})

	go func() {
		defer timer.Stop()
		for {
			select {
			case msg := <-c.inbox:
				if _, isDeadline := msg.(deadlineTick); isDeadline {
					c.emit()
					return
				}
				c.onReport(msg)
			case <-stop:
				return
			}
		}
	}()
}

func (c *Counter) onReport(msg wire.Message) {
	report, ok := msg.(wire.TrafficReport)
	if !ok {
		c.log.Warn("dropping unexpected message on counter inbox")
		return
	}
	c.entries[report.FromID] = entry{bytesSent: report.BytesSent, bytesReceived: report.BytesReceived}
}

// emit folds every entry's bytes_sent+bytes_received into the grand total,
// prints it as the bare machine-parseable final line, and publishes it on
// Done.
func (c *Counter) emit() {
	var total uint64
	for _, e := range c.entries {
		total += e.bytesSent + e.bytesReceived
	}
	fmt.Println(total)
	c.done <- total
}

// deadlineTick is the counter's own internal timer signal; it never crosses
// a real wire and costs nothing in the accounting table.
type deadlineTick struct{}

func (deadlineTick) SizeBytes() uint64 { return 0 }
