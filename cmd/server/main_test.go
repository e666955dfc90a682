package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pool = `
[[office]]
id = "6f1c1f7e-3f4b-4d8e-9a55-1b2c3d4e5f60"
[office.profile]
name = "Riga Freeport"
[office.params.fee]
kind = "FLAT"
value = 10.0
[[office.inspector]]
name = "Ivan"
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOfficesValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.toml")
	require.NoError(t, os.WriteFile(path, []byte(pool), 0o644))

	t.Run("Valid File", func(t *testing.T) {
		out, err := run(t, "offices", "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Riga Freeport")
		assert.Contains(t, out, "Flat(10)")
		assert.Contains(t, out, "1 offices, 1 inspectors")
	})

	t.Run("File From Environment", func(t *testing.T) {
		t.Setenv("OFFICES_FILE", path)
		_, err := run(t, "offices", "validate")
		assert.NoError(t, err)
	})

	t.Run("No File", func(t *testing.T) {
		t.Setenv("OFFICES_FILE", "")
		_, err := run(t, "offices", "validate")
		assert.ErrorContains(t, err, "OFFICES_FILE")
	})

	t.Run("Invalid File", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(bad, []byte("[[office]]\nid = \"nope\"\n"), 0o644))
		_, err := run(t, "offices", "validate", bad)
		assert.Error(t, err)
	})
}
