package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	t.Run("Return existing model path with sanitized name", func(t *testing.T) {
		modelDir := t.TempDir()
		expectedPath := filepath.Join(modelDir, "organization_model-name")
		require.NoError(t, os.MkdirAll(expectedPath, 0750))

		path, err := PrepareModel(modelDir, "organization/model-name", "")

		assert.NoError(t, err, "Expected PrepareModel to not return an error for existing model")
		assert.Equal(t, expectedPath, path, "Expected path to use sanitized name")
	})

	t.Run("Model name without slash", func(t *testing.T) {
		modelDir := t.TempDir()
		expectedPath := filepath.Join(modelDir, "simple-model")
		require.NoError(t, os.MkdirAll(expectedPath, 0750))

		path, err := PrepareModel(modelDir, "simple-model", "onnx/model.onnx")

		assert.NoError(t, err)
		assert.Equal(t, expectedPath, path)
	})
}
