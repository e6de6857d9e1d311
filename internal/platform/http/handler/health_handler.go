// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agriscan_backend/internal/api"
)

// ServiceMessage は GET / が返すサービス名です。
const ServiceMessage = "AgriScan API - Tomato Leaf Disease Detection"

// Root はサービス稼働確認用の / エンドポイントを処理します。
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, api.RootResponse{Message: ServiceMessage, Status: "running"})
}

// Health はサービスヘルスチェック用の /health エンドポイントを処理します。
// モデルの読み込み状態に関係なく常に healthy を返し、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, api.HealthResponse{Status: "healthy"})
}
