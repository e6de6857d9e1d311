package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agriscan_backend/internal/api"
	analysishandler "agriscan_backend/internal/feature/analysis/transport/handler"
	"agriscan_backend/internal/platform/http/handler"
	"agriscan_backend/internal/platform/metrics"
)

// NewRouter はミドルウェアとルートを登録したginエンジンを生成します。
func NewRouter(analysis *analysishandler.AnalysisHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	// リカバリーより外側に置き、パニックしたリクエストも計測する
	r.Use(metrics.Middleware())
	// パニックは {detail} 形式の500に変換し、サーバーは動作を継続する
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Detail: fmt.Sprint(recovered)})
	}))

	// すべてのオリジン・メソッド・ヘッダーを許可
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"*"},
	}))

	// 導通確認用
	r.GET("/", handler.Root)
	r.GET("/health", handler.Health)
	r.HEAD("/health", handler.Health)

	// 画像解析
	r.POST("/analyze", analysis.Analyze)
	r.POST("/analyze-base64", analysis.AnalyzeBase64)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
