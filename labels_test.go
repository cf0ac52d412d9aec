package rknpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "coco_80_labels_list.txt")
	require.NoError(t, os.WriteFile(file, []byte("person\r\n bicycle \ncar\n\n\n"), 0o644))

	labels, err := LoadLabels(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"person", "bicycle", "car"}, labels)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLabel(t *testing.T) {

	labels := []string{"person", "", "car"}

	assert.Equal(t, "person", Label(labels, 0))
	assert.Equal(t, "class 1", Label(labels, 1))
	assert.Equal(t, "car", Label(labels, 2))
	assert.Equal(t, "class 3", Label(labels, 3))
	assert.Equal(t, "class -1", Label(labels, -1))
}
