package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriscan_backend/internal/feature/analysis/domain/entity"
)

const digest = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

var sample = &entity.AnalysisResult{
	Success: true,
	Predictions: []entity.Detection{
		{ClassName: "Septoria_leaf_spot", Confidence: 0.66, BBox: [4]float64{1, 2, 3, 4}, Label: "Septoria Yaprak Lekesi", Severity: "medium"},
	},
	ImageSize:  entity.ImageSize{Width: 256, Height: 256},
	AllClasses: []string{"Septoria_leaf_spot"},
}

// TestNewRedisResultCache_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewRedisResultCache_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", 10 * time.Minute, "analysis"},
		{"negative ttl uses default", -time.Minute, "", 10 * time.Minute, "analysis"},
		{"custom values preserved", time.Hour, "custom", time.Hour, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewRedisResultCache(nil, tt.ttl, tt.namespace)
			assert.Equal(t, tt.expectedTTL, c.ttl)
			assert.Equal(t, tt.expectedNamespace, c.namespace)
		})
	}
}

func TestRedisResultCache_NilClientBypasses(t *testing.T) {
	t.Parallel()

	c := NewRedisResultCache(nil, 0, "")
	got, found, err := c.Get(context.Background(), digest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
	assert.NoError(t, c.Set(context.Background(), digest, sample))
}

func TestRedisResultCache_Get(t *testing.T) {
	t.Parallel()

	key := "analysis:" + digest
	encoded, err := sonic.Marshal(sample)
	require.NoError(t, err)

	tests := []struct {
		name      string
		setup     func(mock redismock.ClientMock)
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "hit",
			setup:     func(mock redismock.ClientMock) { mock.ExpectGet(key).SetVal(string(encoded)) },
			wantFound: true,
		},
		{
			name:  "miss",
			setup: func(mock redismock.ClientMock) { mock.ExpectGet(key).RedisNil() },
		},
		{
			name: "corrupted entry is deleted",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet(key).SetVal("{not json")
				mock.ExpectDel(key).SetVal(1)
			},
		},
		{
			name:    "redis error",
			setup:   func(mock redismock.ClientMock) { mock.ExpectGet(key).SetErr(errors.New("connection refused")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := redismock.NewClientMock()
			tt.setup(mock)
			c := NewRedisResultCache(db, 0, "")

			got, found, err := c.Get(context.Background(), digest)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, sample, got)
			} else {
				assert.Nil(t, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisResultCache_Set(t *testing.T) {
	t.Parallel()

	encoded, err := sonic.Marshal(sample)
	require.NoError(t, err)

	t.Run("stores with ttl under namespace", func(t *testing.T) {
		t.Parallel()

		db, mock := redismock.NewClientMock()
		mock.ExpectSet("scans:"+digest, encoded, 30*time.Minute).SetVal("OK")

		c := NewRedisResultCache(db, 30*time.Minute, "scans")
		assert.NoError(t, c.Set(context.Background(), digest, sample))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error is returned", func(t *testing.T) {
		t.Parallel()

		db, mock := redismock.NewClientMock()
		mock.ExpectSet("analysis:"+digest, encoded, 10*time.Minute).SetErr(errors.New("OOM"))

		c := NewRedisResultCache(db, 0, "")
		assert.Error(t, c.Set(context.Background(), digest, sample))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil result is ignored", func(t *testing.T) {
		t.Parallel()

		db, mock := redismock.NewClientMock()
		c := NewRedisResultCache(db, 0, "")
		assert.NoError(t, c.Set(context.Background(), digest, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
