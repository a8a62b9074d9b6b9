package sketch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptySketchIsZero(t *testing.T) {
	s := New(16)
	for _, f := range s.fields {
		require.Equal(t, uint64(0), f)
	}
}

func TestInsertThenDecodeAgainstEmpty(t *testing.T) {
	a := New(16)
	ids := []uint64{1, 2, 3, 4}
	for _, id := range ids {
		a.Insert(id)
	}
	b := New(16)

	diffs, err := Reconcile(a.Serialize(), b.Serialize(), 16, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, ids, diffs)
}

func TestMergeCommutative(t *testing.T) {
	a := New(8)
	a.Insert(10)
	a.Insert(20)

	b := New(8)
	b.Insert(20)
	b.Insert(30)

	ab := a.Clone()
	require.NoError(t, ab.Merge(b))

	ba := b.Clone()
	require.NoError(t, ba.Merge(a))

	require.Equal(t, ab.Serialize(), ba.Serialize())
}

func TestDecodeOverCapacityFails(t *testing.T) {
	a := New(4)
	for i := uint64(0); i < 32; i++ {
		a.Insert(i)
	}
	b := New(4)
	for i := uint64(0); i < 8; i++ {
		b.Insert(i)
	}
	_, err := Reconcile(a.Serialize(), b.Serialize(), 4, nil)
	require.ErrorIs(t, err, ErrOverCapacity)
}

func TestDeserializeRejectsWrongSize(t *testing.T) {
	_, err := Deserialize(16, nil, make([]byte, 4))
	require.ErrorIs(t, err, ErrMalformedSketch)
}
