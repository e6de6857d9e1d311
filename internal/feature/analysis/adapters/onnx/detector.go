// Package onnx はONNX Runtime で YOLOv8 検出モデルを実行します。
package onnx

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"agriscan_backend/internal/feature/analysis/domain"
	"agriscan_backend/internal/feature/analysis/domain/entity"
	"agriscan_backend/internal/feature/analysis/usecase"
)

// envMu はプロセス全体のONNX Runtime環境を保護します。
var envMu sync.Mutex

// Detector はONNXセッションのプールで YOLOv8 モデルを実行します。
type Detector struct {
	cfg        Config
	pool       *sessionPool
	names      map[int]string
	numClasses int
	numAnchors int
}

var _ usecase.Detector = (*Detector)(nil)

// Load は必要ならランタイムを初期化し、モデル用に cfg.PoolSize 個のセッションを構築します。
func Load(ctx context.Context, cfg Config) (*Detector, error) {
	cfg = cfg.withDefaults()

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model weights: %w", err)
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	names, err := loadLabels(cfg.LabelsPath, cfg.ModelPath)
	if err != nil {
		return nil, err
	}

	inputSize, numClasses, numAnchors, err := modelLayout(cfg, len(names))
	if err != nil {
		return nil, err
	}
	cfg.InputSize = inputSize

	pool, err := newSessionPool(cfg.PoolSize, func() (*modelSession, error) {
		return newModelSession(cfg, numClasses, numAnchors)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("onnx detector ready",
		"model", cfg.ModelPath,
		"input_size", cfg.InputSize,
		"classes", numClasses,
		"anchors", numAnchors,
		"sessions", cfg.PoolSize)

	return &Detector{
		cfg:        cfg,
		pool:       pool,
		names:      completeNames(names, numClasses),
		numClasses: numClasses,
		numAnchors: numAnchors,
	}, nil
}

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// modelLayout はモデルから入力サイズと出力形状を読み取ります。
// 動的な次元は設定値とラベル数で補います。
func modelLayout(cfg Config, numLabels int) (inputSize, numClasses, numAnchors int, err error) {
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read model io info: %w", err)
	}

	inputSize = cfg.InputSize
	for _, in := range inputs {
		if in.Name == cfg.InputName && len(in.Dimensions) == 4 && in.Dimensions[2] > 0 {
			if n := int(in.Dimensions[2]); n != inputSize {
				slog.Warn("model input size overrides configuration", "configured", inputSize, "model", n)
				inputSize = n
			}
		}
	}

	numClasses = numLabels
	numAnchors = anchorsFor(inputSize)
	for _, out := range outputs {
		if out.Name != cfg.OutputName || len(out.Dimensions) != 3 {
			continue
		}
		if c := out.Dimensions[1]; c > 4 {
			numClasses = int(c) - 4
		}
		if a := out.Dimensions[2]; a > 0 {
			numAnchors = int(a)
		}
	}
	if numClasses <= 0 {
		return 0, 0, 0, fmt.Errorf("cannot determine class count of %s", cfg.ModelPath)
	}
	return inputSize, numClasses, numAnchors, nil
}

// Detect は img をレターボックス化して一つのセッションで推論し、結果グループを一つ返します。
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]entity.ResultGroup, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInference)
	}
	size := d.cfg.InputSize
	canvas, lb := letterboxImage(img, size)

	s, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire session: %v", domain.ErrInference, err)
	}
	defer d.pool.Release(s)

	fillCHW(s.input.GetData(), canvas, size)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInference, err)
	}

	cands := decodeOutput(s.output.GetData(), d.numClasses, d.numAnchors, float32(d.cfg.ConfThreshold))
	kept := nms(cands, float32(d.cfg.IoUThreshold), d.cfg.MaxDetections)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	boxes := make([]entity.RawBox, 0, len(kept))
	for _, c := range kept {
		boxes = append(boxes, unletterbox(c, lb, w, h))
	}
	return []entity.ResultGroup{{Boxes: boxes, Names: d.names}}, nil
}

// Close はセッションを破棄します。
func (d *Detector) Close() error {
	d.pool.Close()
	return nil
}
