// Package txpool defines the simulated transaction payload, its short-ID
// digest, and the per-peer mempool and receipt ledger built from it.
package txpool

import (
	"encoding/binary"

	"github.com/aead/siphash"
	"github.com/chaintools/erlay-relay-sim/internal/peerid"
)

// TxSize is the default payload size for traffic-heavy runs. cmd/erlay-sim
// exposes --txsize as a runtime flag so one binary can reproduce either a
// heavy or a light payload run without a rebuild.
const TxSize = 1024

// TxSizeLight is a lightweight alternative payload size (32 bytes).
const TxSizeLight = 32

// shortIDKey is the fixed 128-bit SipHash-2-4 key used for short IDs:
// k0=0xDE, k1=0xAD, each a 64-bit half, little-endian encoded back to back.
var shortIDKey = func() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], 0xDE)
	binary.LittleEndian.PutUint64(buf[8:16], 0xAD)
	return buf
}()

// Tx is an opaque fixed-length transaction payload.
type Tx []byte

// NewTx allocates a zero payload of the given size.
func NewTx(size int) Tx {
	return make(Tx, size)
}

// ShortID computes the transaction's short identifier: SipHash-2-4 over the
// payload with the fixed keys above.
func (t Tx) ShortID() uint64 {
	return siphash.Sum64(shortIDKey, t)
}

// Mempool maps a transaction's short ID to its payload. An entry is created
// on first receipt and never removed.
type Mempool map[uint64]Tx

// NewMempool constructs an empty mempool.
func NewMempool() Mempool {
	return make(Mempool)
}

// Insert adds tx under its short ID if not already present, reporting
// whether it was newly inserted.
func (m Mempool) Insert(tx Tx) (id uint64, inserted bool) {
	id = tx.ShortID()
	if _, ok := m[id]; ok {
		return id, false
	}
	m[id] = tx
	return id, true
}

// ReceivedTxs records, for observability only, the order in which short IDs
// were received from each neighbour.
type ReceivedTxs map[peerid.ID][]uint64

// NewReceivedTxs constructs an empty receipt ledger.
func NewReceivedTxs() ReceivedTxs {
	return make(ReceivedTxs)
}

// Record appends txid to the sequence received from peer p.
func (r ReceivedTxs) Record(p peerid.ID, txid uint64) {
	r[p] = append(r[p], txid)
}
