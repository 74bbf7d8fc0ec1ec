package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"scan"})
	require.NoError(t, err)
	assert.Equal(t, "scan", cmd.Use)
}

func TestScanCmd_Flags(t *testing.T) {
	for _, name := range []string{"cleanup", "dry-run", "reverify", "policy", "from-year"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestScanCmd_RejectsUnknownPolicy(t *testing.T) {
	originalDataDir := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = originalDataDir }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"scan", "--policy", "fuzzy"})
	defer func() {
		rootCmd.SetArgs(nil)
		scanPolicy = ""
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown match policy")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("data-dir"))
}
