package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	catalog CatalogServiceInterface
	now     func() time.Time
}

// NewHealthHandler はHealthHandlerを作成する
func NewHealthHandler(catalog CatalogServiceInterface) *HealthHandler {
	return &HealthHandler{catalog: catalog, now: time.Now}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	Events    int    `json:"events"`
	Timestamp string `json:"timestamp"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションの健全性と読み込み済みイベント数を返す
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Events:    len(h.catalog.EventIDs()),
		Timestamp: h.now().Format(time.RFC3339),
	})
}
