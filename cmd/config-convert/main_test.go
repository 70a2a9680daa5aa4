package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/tlprofile/pkg/config"
)

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "tlprofile.yaml")
	sqliteFile := filepath.Join(dir, "tlprofile.db")
	require.NoError(t, os.WriteFile(yamlFile, []byte("simplification:\n  epsilon: 3\nlines:\n  L1:\n    size-changes: true\n"), 0o600))

	require.NoError(t, convert(yamlFile, sqliteFile, false, true))
	_, err := os.Stat(sqliteFile)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, convert(yamlFile, sqliteFile, false, false))
	assert.Error(t, convert(yamlFile, sqliteFile, false, false))
	require.NoError(t, convert(yamlFile, sqliteFile, true, false))

	p, err := config.NewSQLiteProvider(sqliteFile)
	require.NoError(t, err)
	defer p.Close()

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Simplification.Epsilon)
	assert.True(t, cfg.Lines["L1"].SizeChanges)
}
