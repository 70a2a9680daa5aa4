package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tlprofile.log")

	require.NoError(t, Init(true, file))
	Debugw("simplified", "line", "LINE-1", "kept", 12)
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "simplified", entry["msg"])
	assert.Equal(t, "LINE-1", entry["line"])
	assert.Equal(t, float64(12), entry["kept"])
}

func TestInfoLevelDropsDebug(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tlprofile.log")

	require.NoError(t, Init(false, file))
	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown 2")
}

func TestGetSugaredLoggerFallback(t *testing.T) {
	log, baseLogger = nil, nil
	assert.NotNil(t, GetSugaredLogger())
	assert.NotNil(t, GetZapLogger())
}
