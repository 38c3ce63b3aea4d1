package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avialog/partregistry/internal/journal"
	"github.com/avialog/partregistry/internal/registry"
	"github.com/avialog/partregistry/internal/testutil"
)

// buildJournal records a small lifecycle into a fresh journal database and
// returns its path: a writer grant, two mints, one update, one burn.
func buildJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")

	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	reg, err := registry.New("op-admin",
		registry.WithSink(j),
		registry.WithIDGenerator(testutil.NewSeqIDs()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	clock := testutil.NewSeqClock()
	call := func(caller registry.Identity) registry.Call {
		return registry.Call{Caller: caller, Seq: clock.Next()}
	}

	require.NoError(t, reg.SetAuthorizedWriter(ctx, call("op-admin"), "workshop", true))
	_, err = reg.Mint(ctx, call("workshop"), "alice", registry.MintRequest{
		Serial: "SN-100", Manufacturer: "Acme", Status: registry.StatusNew,
	})
	require.NoError(t, err)
	require.NoError(t, reg.UpdateMetadata(ctx, call("workshop"), 1, registry.Update{
		Status: registry.Set(registry.StatusInUse),
	}))
	_, err = reg.Mint(ctx, call("op-admin"), "workshop", registry.MintRequest{
		Serial: "SN-200", Manufacturer: "Globex", Status: registry.StatusInstalled,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Burn(ctx, call("workshop"), 2))

	return path
}

func TestTraceCommand_Text(t *testing.T) {
	path := buildJournal(t)

	out, err := execute(t, "trace", path)
	require.NoError(t, err)
	assert.Contains(t, out, "registry.writer_set")
	assert.Contains(t, out, "part.minted")
	assert.Contains(t, out, "part=1")
	assert.Contains(t, out, "part.burned")
	assert.Contains(t, out, "5 event(s), last seq 5")
}

func TestTraceCommand_PartFilter(t *testing.T) {
	path := buildJournal(t)

	out, err := execute(t, "trace", path, "--part", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "part.minted")
	assert.Contains(t, out, "part.burned")
	assert.NotContains(t, out, "part.updated")
	assert.Contains(t, out, "2 event(s)")
}

func TestTraceCommand_JSON(t *testing.T) {
	path := buildJournal(t)

	out, err := execute(t, "trace", path, "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, int64(5), result.LastSeq)
	require.Len(t, result.Timeline, 5)
	assert.Equal(t, "ev-0001", result.Timeline[0].ID)
	assert.Equal(t, "part.minted", result.Timeline[1].Name)
	assert.Equal(t, uint64(1), result.Timeline[1].Part)
	assert.Equal(t, "alice", result.Timeline[1].Payload["to"])
}

func TestTraceCommand_MissingDatabase(t *testing.T) {
	_, err := execute(t, "trace", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
