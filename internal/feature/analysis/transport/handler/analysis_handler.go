// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agriscan_backend/internal/api"
	"agriscan_backend/internal/feature/analysis/domain"
	"agriscan_backend/internal/feature/analysis/domain/entity"
)

// multipartOverhead はマルチパートのヘッダー等に許容する追加バイト数です。
const multipartOverhead = 1 << 20

// AnalysisUsecase は画像解析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	Analyze(ctx context.Context, data []byte) (*entity.AnalysisResult, error)
	AnalyzeBase64(ctx context.Context, encoded string) (*entity.AnalysisResult, error)
	MaxImageSize() int
}

// AnalysisHandler は画像解析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Analyze はアップロードされた画像を解析します。
//
// エンドポイント: POST /analyze
// Content-Type: multipart/form-data
// フィールド: file（画像ファイル）
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.uc.MaxImageSize())+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			slog.Warn("アップロードサイズが上限を超過", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: domain.ErrImageTooLarge.Error()})
			return
		}
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "field 'file' is required"})
		return
	}
	slog.Debug("画像ファイルを受信", "filename", file.Filename, "size", file.Size, "content_type", file.Header.Get("Content-Type"))

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
		return
	}

	res, err := h.uc.Analyze(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnalysisResponse(res))
}

// AnalyzeBase64 はBase64エンコードされた画像を解析します。
//
// エンドポイント: POST /analyze-base64
// Content-Type: application/json
// ボディ: {"image": "<base64 または data URI>"}
func (h *AnalysisHandler) AnalyzeBase64(c *gin.Context) {
	limit := int64(h.uc.MaxImageSize())/3*4 + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req api.Base64AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			slog.Warn("リクエストサイズが上限を超過", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: domain.ErrImageTooLarge.Error()})
			return
		}
		slog.Warn("Base64リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "field 'image' is required"})
		return
	}

	res, err := h.uc.AnalyzeBase64(c.Request.Context(), *req.Image)
	if err != nil {
		writeError(c, err)
		return
	}

	classes := res.AllClasses
	if classes == nil {
		classes = []string{}
	}
	c.JSON(http.StatusOK, api.Base64AnalysisResponse{
		AnalysisResponse: toAnalysisResponse(res),
		AllClasses:       classes,
	})
}

// writeError はエラー種別に応じたステータスで {detail} を返します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrImageTooLarge):
		slog.Warn("画像サイズが上限を超過", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrDecode):
		slog.Warn("画像のデコードに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
	default:
		slog.Error("画像解析に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error()})
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func toAnalysisResponse(res *entity.AnalysisResult) api.AnalysisResponse {
	preds := make([]api.PredictionResponse, 0, len(res.Predictions))
	for _, p := range res.Predictions {
		preds = append(preds, api.PredictionResponse{
			Class:      p.ClassName,
			Confidence: p.Confidence,
			BBox:       p.BBox,
			Label:      p.Label,
			Severity:   p.Severity,
		})
	}
	return api.AnalysisResponse{
		Success:     res.Success,
		Predictions: preds,
		ImageSize: api.ImageSizeResponse{
			Width:  res.ImageSize.Width,
			Height: res.ImageSize.Height,
		},
	}
}
