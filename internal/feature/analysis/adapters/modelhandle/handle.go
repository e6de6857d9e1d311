// Package modelhandle はプロセス全体で共有する検出器インスタンスを管理します。
package modelhandle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"agriscan_backend/internal/feature/analysis/domain"
	"agriscan_backend/internal/feature/analysis/usecase"
	"agriscan_backend/internal/platform/metrics"
)

// Loader は検出器を構築します。成功するまでの各ロードで一度だけ呼ばれます。
type Loader func(ctx context.Context) (usecase.Detector, error)

// Handle は初回利用時に検出器を遅延構築し、全呼び出し元で共有します。
// 構築の失敗は記憶せず、次の Get で再試行します。
type Handle struct {
	load  Loader
	group singleflight.Group

	mu       sync.RWMutex
	detector usecase.Detector
}

var _ usecase.ModelProvider = (*Handle)(nil)

// New は load で検出器を構築する Handle を生成します。
func New(load Loader) *Handle {
	return &Handle{load: load}
}

// Get は共有の検出器を返し、未構築なら構築します。
// 同時に到着した初回の呼び出しは一つの構築を待ちます。ctx がキャンセルされた呼び出し元は待機をやめますが、構築自体は最後まで実行されます。
func (h *Handle) Get(ctx context.Context) (usecase.Detector, error) {
	if d := h.current(); d != nil {
		return d, nil
	}

	ch := h.group.DoChan("detector", func() (any, error) {
		if d := h.current(); d != nil {
			return d, nil
		}
		return h.construct(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, res.Err)
		}
		return res.Val.(usecase.Detector), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, ctx.Err())
	}
}

// Loaded は検出器が構築済みかどうかを返します。
func (h *Handle) Loaded() bool {
	return h.current() != nil
}

// Close は検出器がリソースを持っていれば解放します。
func (h *Handle) Close() error {
	h.mu.Lock()
	d := h.detector
	h.detector = nil
	h.mu.Unlock()

	if c, ok := d.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (h *Handle) current() usecase.Detector {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detector
}

func (h *Handle) construct(ctx context.Context) (usecase.Detector, error) {
	start := time.Now()
	slog.Info("loading detection model")

	d, err := h.load(ctx)
	if err == nil && d == nil {
		err = fmt.Errorf("loader returned no detector")
	}
	if err != nil {
		metrics.ModelLoadsTotal(metrics.StatusError)
		slog.Error("failed to load detection model", "error", err)
		return nil, err
	}

	h.mu.Lock()
	h.detector = d
	h.mu.Unlock()

	metrics.ModelLoadsTotal(metrics.StatusOK)
	slog.Info("detection model loaded", "duration", time.Since(start))
	return d, nil
}
