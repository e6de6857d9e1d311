// Package api はHTTPリクエスト・レスポンスのJSON表現を定義します。
package api

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RootResponse は GET / のレスポンスです。
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse は GET /health のレスポンスです。
type HealthResponse struct {
	Status string `json:"status"`
}

// Base64AnalysisRequest は POST /analyze-base64 のリクエストボディです。
// 空文字列はバインディングを通過し、デコード段階で失敗します。
type Base64AnalysisRequest struct {
	Image *string `json:"image" binding:"required"`
}

// PredictionResponse は1件の検出結果です。bbox は [x, y, width, height] です。
type PredictionResponse struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
	Label      string     `json:"label,omitempty"`
	Severity   string     `json:"severity,omitempty"`
}

// ImageSizeResponse はデコード後の画像サイズです。
type ImageSizeResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AnalysisResponse は POST /analyze のレスポンスです。
type AnalysisResponse struct {
	Success     bool                 `json:"success"`
	Predictions []PredictionResponse `json:"predictions"`
	ImageSize   ImageSizeResponse    `json:"image_size"`
}

// Base64AnalysisResponse は POST /analyze-base64 のレスポンスです。
type Base64AnalysisResponse struct {
	AnalysisResponse
	AllClasses []string `json:"all_classes"`
}
