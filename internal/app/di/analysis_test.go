package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriscan_backend/internal/config"
)

func TestNewModelLoader_MissingWeights(t *testing.T) {
	t.Parallel()

	load := NewModelLoader(config.ModelConfig{Backend: config.BackendONNX, Path: "does/not/exist.onnx"})
	require.NotNil(t, load)

	_, err := load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model weights")
}

func TestNewResultCache(t *testing.T) {
	t.Parallel()

	c := NewResultCache(nil, config.RedisConfig{})
	got, found, err := c.Get(context.Background(), "abc")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestDescribeBackend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "onnx models/best.onnx", DescribeBackend(config.ModelConfig{Backend: config.BackendONNX, Path: "models/best.onnx"}))
	assert.Equal(t, "cloud vision object localization", DescribeBackend(config.ModelConfig{Backend: config.BackendVision}))
}
