package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

type EventHandler struct {
	catalog CatalogServiceInterface
}

func NewEventHandler(catalog CatalogServiceInterface) *EventHandler {
	return &EventHandler{catalog: catalog}
}

// Register はイベント関連のルートを登録する
func (h *EventHandler) Register(g *echo.Group) {
	g.GET("/events", h.List)
	g.GET("/events/upcoming", h.Upcoming)
	g.GET("/events/past", h.Past)
	g.GET("/events/ids", h.IDs)
	g.GET("/events/category/:category", h.ByCategory)
	g.GET("/events/:id", h.GetByID)
}

// ListEventsRequest は一覧取得の絞り込み条件。省略した項目は all 扱い
type ListEventsRequest struct {
	Category   string `query:"category" validate:"omitempty,oneof=all tournament experience workshop certification other"`
	Level      string `query:"level" validate:"omitempty,oneof=all beginner intermediate advanced open unknown"`
	Prefecture string `query:"prefecture" validate:"omitempty,prefecture"`
	DateRange  string `query:"dateRange" validate:"omitempty,oneof=all this-month next-month within-3-months past"`
	Dupr       string `query:"dupr" validate:"omitempty,oneof=all true false"`
	Format     string `query:"format" validate:"omitempty,oneof=all singles doubles mixed unknown"`
	Source     string `query:"source" validate:"omitempty,oneof=all jpa manual"`
	Q          string `query:"q" validate:"max=100"`
}

func (r ListEventsRequest) toFilterOptions() application.FilterOptions {
	opts := application.DefaultFilterOptions()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&opts.Category, r.Category)
	set(&opts.Level, r.Level)
	set(&opts.Prefecture, r.Prefecture)
	set(&opts.DateRange, r.DateRange)
	set(&opts.Dupr, r.Dupr)
	set(&opts.Format, r.Format)
	set(&opts.Source, r.Source)
	opts.Search = r.Q
	return opts
}

// EventListResponse はイベント一覧のレスポンス
type EventListResponse struct {
	Events []*event.Event `json:"events"`
	Count  int            `json:"count"`
}

// EventIDsResponse はイベントID一覧のレスポンス
type EventIDsResponse struct {
	IDs []string `json:"ids"`
}

func listResponse(events []*event.Event) EventListResponse {
	if events == nil {
		events = []*event.Event{}
	}
	return EventListResponse{Events: events, Count: len(events)}
}

// List godoc
// @Summary イベント一覧を取得
// @Description 表示順に並んだイベント一覧を条件で絞り込んで返します
// @Tags events
// @Produce json
// @Param category query string false "種別" default(all)
// @Param level query string false "レベル" default(all)
// @Param prefecture query string false "都道府県" default(all)
// @Param dateRange query string false "開催時期" default(all)
// @Param dupr query string false "DUPR反映" default(all)
// @Param format query string false "試合形式" default(all)
// @Param source query string false "取得元" default(all)
// @Param q query string false "キーワード"
// @Success 200 {object} EventListResponse
// @Failure 400 {object} map[string]string
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	var req ListEventsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse(h.catalog.ListEvents(req.toFilterOptions())))
}

// Upcoming godoc
// @Summary 今後のイベントを取得
// @Tags events
// @Produce json
// @Param limit query int false "取得件数（0は無制限）"
// @Success 200 {object} EventListResponse
// @Failure 400 {object} map[string]string
// @Router /events/upcoming [get]
func (h *EventHandler) Upcoming(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit は0以上の整数で指定してください")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, listResponse(h.catalog.UpcomingEvents(limit)))
}

// Past godoc
// @Summary 終了したイベントを取得
// @Tags events
// @Produce json
// @Success 200 {object} EventListResponse
// @Router /events/past [get]
func (h *EventHandler) Past(c echo.Context) error {
	return c.JSON(http.StatusOK, listResponse(h.catalog.PastEvents()))
}

// IDs godoc
// @Summary イベントID一覧を取得
// @Tags events
// @Produce json
// @Success 200 {object} EventIDsResponse
// @Router /events/ids [get]
func (h *EventHandler) IDs(c echo.Context) error {
	ids := h.catalog.EventIDs()
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, EventIDsResponse{IDs: ids})
}

// ByCategory godoc
// @Summary 種別ごとのイベントを取得
// @Tags events
// @Produce json
// @Param category path string true "種別"
// @Success 200 {object} EventListResponse
// @Failure 400 {object} map[string]string
// @Router /events/category/{category} [get]
func (h *EventHandler) ByCategory(c echo.Context) error {
	raw := c.Param("category")
	category := event.ParseCategory(raw)
	if string(category) != raw {
		return echo.NewHTTPError(http.StatusBadRequest, "不明な種別です: "+raw)
	}
	return c.JSON(http.StatusOK, listResponse(h.catalog.EventsByCategory(category)))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} event.Event
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.catalog.GetEvent(c.Param("id"))
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "イベントが見つかりません")
		}
		return err
	}
	return c.JSON(http.StatusOK, e)
}
