package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(seq int64) HistoryEntry {
	return HistoryEntry{
		Updater: "u",
		Seq:     seq,
		Change:  []byte(fmt.Sprintf(`{"n":%d}`, seq)),
	}
}

func TestHistoryRing_Empty(t *testing.T) {
	var ring historyRing
	assert.Nil(t, ring.snapshot())
}

func TestHistoryRing_PartialFill(t *testing.T) {
	var ring historyRing
	for seq := int64(1); seq <= 3; seq++ {
		ring.append(entry(seq))
	}

	got := ring.snapshot()
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestHistoryRing_EvictsOldest(t *testing.T) {
	var ring historyRing
	for seq := int64(1); seq <= HistoryCap+5; seq++ {
		ring.append(entry(seq))
	}

	got := ring.snapshot()
	require.Len(t, got, HistoryCap)
	assert.Equal(t, int64(6), got[0].Seq, "entries 1-5 evicted")
	assert.Equal(t, int64(HistoryCap+5), got[HistoryCap-1].Seq)

	// Still oldest-first after the window wrapped.
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].Seq+1, got[i].Seq)
	}
}

func TestHistoryRing_SnapshotIsACopy(t *testing.T) {
	var ring historyRing
	ring.append(entry(1))

	got := ring.snapshot()
	got[0].Seq = 99

	fresh := ring.snapshot()
	assert.Equal(t, int64(1), fresh[0].Seq)
}
