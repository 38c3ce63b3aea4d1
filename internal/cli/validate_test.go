package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommand_ValidDocument(t *testing.T) {
	path := writeFile(t, "part.json",
		`{"serial": "SN-1042", "manufacturer": "Acme", "specification": "fan blade rev B", "status": "new"}`)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidateCommand_InvalidDocument(t *testing.T) {
	path := writeFile(t, "part.json",
		`{"serial": "", "manufacturer": "Acme", "specification": "", "status": "new"}`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "metadata")
}

func TestValidateCommand_UnknownStatus(t *testing.T) {
	path := writeFile(t, "part.json",
		`{"serial": "SN-1", "manufacturer": "Acme", "specification": "", "status": "lost"}`)

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand_MalformedJSON(t *testing.T) {
	path := writeFile(t, "part.json", `{"serial": `)

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
