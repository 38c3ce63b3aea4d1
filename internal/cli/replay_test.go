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
)

func TestReplayCommand_Text(t *testing.T) {
	path := buildJournal(t)

	out, err := execute(t, "replay", path, "--admin", "op-admin")
	require.NoError(t, err)
	assert.Contains(t, out, "replayed 5 event(s): 2 mint, 1 update, 1 burn")
	assert.Contains(t, out, "live parts: 1 (last id 2, total minted 2)")
	assert.Contains(t, out, "administrator: op-admin")
}

func TestReplayCommand_JSON(t *testing.T) {
	path := buildJournal(t)

	out, err := execute(t, "replay", path, "--admin", "op-admin", "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ReplayResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 5, result.Events)
	assert.Equal(t, 2, result.Mints)
	assert.Equal(t, 1, result.Updates)
	assert.Equal(t, 1, result.Burns)
	assert.Equal(t, int64(5), result.LastSeq)
	assert.Equal(t, uint64(1), result.LiveParts)
	assert.Equal(t, uint64(2), result.LastID)
	assert.Equal(t, uint64(2), result.TotalMinted)
	assert.Equal(t, "op-admin", result.Admin)
	assert.False(t, result.Paused)
}

func TestReplayCommand_RequiresAdmin(t *testing.T) {
	path := buildJournal(t)

	_, err := execute(t, "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--admin is required")
}

func TestReplayCommand_MissingDatabase(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "absent.db"), "--admin", "op-admin")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayCommand_Divergence(t *testing.T) {
	// A journal holding only a burn event cannot be replayed: the part it
	// names was never minted.
	path := filepath.Join(t.TempDir(), "events.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), registry.Event{
		ID: "ev-0001", Name: registry.EventPartBurned, Part: 1, Actor: "op-admin", Seq: 1,
		Payload: map[string]any{"owner": "alice"},
	}))
	require.NoError(t, j.Close())

	out, err := execute(t, "replay", path, "--admin", "op-admin")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "replay diverged")
}

func TestReplayCommand_WrongGenesisAdmin(t *testing.T) {
	// Replaying with a different genesis administrator diverges at the
	// first event: the recorded actor holds no privileges.
	path := buildJournal(t)

	_, err := execute(t, "replay", path, "--admin", "someone-else")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
