// Package usecase はanalysisフィーチャーの画像から検出結果までのパイプラインを実装します。
package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"agriscan_backend/internal/feature/analysis/domain"
	"agriscan_backend/internal/feature/analysis/domain/entity"
	"agriscan_backend/internal/platform/metrics"
)

const (
	// DefaultMaxImageSize は未設定時のアップロード上限です（20MB）。
	DefaultMaxImageSize = 20 * 1024 * 1024
	// DefaultMaxImagePixels は未設定時のデコード可能な最大ピクセル数です（50メガピクセル）。
	DefaultMaxImagePixels = 50_000_000
)

// Detector はデコード済みのRGB画像に対して検出モデルを実行します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Detector interface {
	// Detect は0個以上の結果グループを返します。各グループはボックスとモデルのラベル表を持ちます。
	Detect(ctx context.Context, img image.Image) ([]entity.ResultGroup, error)
}

// ModelProvider は共有のDetectorを返します。初回呼び出し時に構築されます。
type ModelProvider interface {
	Get(ctx context.Context) (Detector, error)
}

// LabelCatalog はクラス名に表示用の情報を付加します。
type LabelCatalog interface {
	Lookup(className string) (entity.LabelInfo, bool)
}

// ResultCache は画像バイト列のダイジェストをキーに解析結果を保存します。
type ResultCache interface {
	Get(ctx context.Context, digest string) (*entity.AnalysisResult, bool, error)
	Set(ctx context.Context, digest string, result *entity.AnalysisResult) error
}

// analysisUsecase は画像のデコード、推論、結果の整形を行います。
type analysisUsecase struct {
	models       ModelProvider
	catalog      LabelCatalog
	cache          ResultCache
	maxImageSize   int
	maxImagePixels int
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
// catalog と cache は nil でもかまいません。0以下の上限値はそれぞれの既定値になります。
func NewAnalysisUsecase(models ModelProvider, catalog LabelCatalog, cache ResultCache, maxImageSize, maxImagePixels int) *analysisUsecase {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	if maxImagePixels <= 0 {
		maxImagePixels = DefaultMaxImagePixels
	}
	return &analysisUsecase{
		models:         models,
		catalog:        catalog,
		cache:          cache,
		maxImageSize:   maxImageSize,
		maxImagePixels: maxImagePixels,
	}
}

// MaxImageSize は有効なアップロード上限（バイト）を返します。
func (u *analysisUsecase) MaxImageSize() int {
	return u.maxImageSize
}

// Analyze はエンコード済み画像のバイト列に対してパイプラインを実行します。
// 結果に all_classes は含めません。
func (u *analysisUsecase) Analyze(ctx context.Context, data []byte) (*entity.AnalysisResult, error) {
	res, err := u.analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	out := *res
	out.AllClasses = nil
	return &out, nil
}

// AnalyzeBase64 はBase64文字列（data URI ヘッダー付きも可）に対してパイプラインを実行します。
// 結果には常に all_classes を含め、結果グループがない場合は空になります。
func (u *analysisUsecase) AnalyzeBase64(ctx context.Context, encoded string) (*entity.AnalysisResult, error) {
	slog.Debug("received base64 image", "length", len(encoded))

	data, err := decodeBase64Payload(encoded)
	if err != nil {
		return nil, err
	}
	slog.Debug("decoded base64 payload", "bytes", len(data))

	res, err := u.analyze(ctx, data)
	if err != nil {
		return nil, err
	}
	out := *res
	if out.AllClasses == nil {
		out.AllClasses = []string{}
	}
	return &out, nil
}

func (u *analysisUsecase) analyze(ctx context.Context, data []byte) (*entity.AnalysisResult, error) {
	if len(data) > u.maxImageSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum of %d bytes", domain.ErrImageTooLarge, len(data), u.maxImageSize)
	}

	digest := digestOf(data)
	if u.cache != nil {
		cached, found, err := u.cache.Get(ctx, digest)
		if err != nil {
			slog.Warn("result cache get failed", "error", err)
		}
		if found {
			slog.Debug("served from cache", "digest", digest)
			return cached, nil
		}
	}

	img, format, err := decodeImage(data, u.maxImagePixels)
	if err != nil {
		return nil, err
	}
	slog.Debug("image opened",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"mode", colorMode(img))

	rgb := toRGB(img)

	detector, err := u.models.Get(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
		}
		return nil, err
	}

	start := time.Now()
	groups, err := detector.Detect(ctx, rgb)
	if err != nil {
		metrics.InferenceDuration(metrics.StatusError, time.Since(start))
		if !errors.Is(err, domain.ErrInference) {
			err = fmt.Errorf("%w: %v", domain.ErrInference, err)
		}
		return nil, err
	}
	metrics.InferenceDuration(metrics.StatusOK, time.Since(start))
	slog.Debug("inference finished", "results", len(groups))

	size := entity.ImageSize{Width: rgb.Bounds().Dx(), Height: rgb.Bounds().Dy()}
	res := buildResult(groups, size, u.catalog)
	for _, p := range res.Predictions {
		metrics.DetectionsTotal(metricClass(p))
	}
	slog.Debug("predictions formatted", "predictions", len(res.Predictions))

	if u.cache != nil {
		if err := u.cache.Set(ctx, digest, res); err != nil {
			slog.Warn("result cache set failed", "error", err)
		}
	}
	return res, nil
}

// metricClass はカタログに載っているクラス名だけをメトリクスのラベルに使います。
// 語彙が閉じていない検出器でも系列数が増え続けないよう、それ以外は "other" にまとめます。
func metricClass(d entity.Detection) string {
	if d.Label == "" {
		return metrics.OtherClass
	}
	return d.ClassName
}

// digestOf は data の SHA-256 を16進文字列で返します。
func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
