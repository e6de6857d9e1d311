// Package di はアプリケーションコンポーネントを生成するDIファクトリを提供します。
package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"agriscan_backend/internal/config"
	"agriscan_backend/internal/feature/analysis/adapters/modelhandle"
	"agriscan_backend/internal/feature/analysis/adapters/onnx"
	"agriscan_backend/internal/feature/analysis/adapters/vision"
	"agriscan_backend/internal/feature/analysis/usecase"
	"agriscan_backend/internal/platform/cache"
)

// NewModelLoader は設定されたバックエンド用の検出器ローダーを返します。
// 相対パスのモデルとラベルは、ローダー実行時に実行ファイルのディレクトリ基準で解決します。
func NewModelLoader(cfg config.ModelConfig) modelhandle.Loader {
	switch cfg.Backend {
	case config.BackendVision:
		return func(ctx context.Context) (usecase.Detector, error) {
			return vision.NewVisionDetector(ctx, cfg.MaxDetections)
		}
	default:
		return func(ctx context.Context) (usecase.Detector, error) {
			modelPath, err := modelhandle.ResolvePath(cfg.Path)
			if err != nil {
				return nil, err
			}
			labelsPath, err := modelhandle.ResolvePath(cfg.LabelsPath)
			if err != nil {
				return nil, err
			}
			return onnx.Load(ctx, onnx.Config{
				ModelPath:     modelPath,
				LabelsPath:    labelsPath,
				LibraryPath:   cfg.RuntimeLib,
				InputSize:     cfg.InputSize,
				InputName:     cfg.InputName,
				OutputName:    cfg.OutputName,
				ConfThreshold: cfg.ConfThreshold,
				IoUThreshold:  cfg.IoUThreshold,
				MaxDetections: cfg.MaxDetections,
				PoolSize:      cfg.PoolSize,
				Threads:       cfg.Threads,
			})
		}
	}
}

// NewResultCache は結果キャッシュを生成します。client が nil の場合は常にミスするキャッシュになります。
func NewResultCache(rdb *redis.Client, cfg config.RedisConfig) *cache.RedisResultCache {
	return cache.NewRedisResultCache(rdb, cfg.TTL, cfg.Namespace)
}

// DescribeBackend は起動ログ用にバックエンドの短い説明を返します。
func DescribeBackend(cfg config.ModelConfig) string {
	if cfg.Backend == config.BackendVision {
		return "cloud vision object localization"
	}
	return fmt.Sprintf("onnx %s", cfg.Path)
}
