package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_WritesRotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger(dir, false)
	require.NoError(t, err)

	logger.Info("booking created")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "cleaning-booking.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "booking created")
	assert.Contains(t, string(data), `"timestamp"`)
}
