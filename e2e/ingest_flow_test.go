package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-pickleball-events/internal/api/server"
	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/extractor"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/datafile"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/manual"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/wordpress"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
)

// 2026-03-15 12:00 JST
var fixedNow = time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type wpPost struct {
	id         int
	title      string
	content    string
	categories []int
}

func (p wpPost) json() map[string]any {
	return map[string]any{
		"id":         p.id,
		"date":       "2026-02-01T09:00:00",
		"link":       fmt.Sprintf("https://japanpickleball.org/news/%d/", p.id),
		"categories": p.categories,
		"title":      map[string]string{"rendered": p.title},
		"excerpt":    map[string]string{"rendered": ""},
		"content":    map[string]string{"rendered": p.content},
	}
}

// newFakeWordPress は1ページ1件ずつ返し、範囲外のページは400を返す
func newFakeWordPress(t *testing.T, posts []wpPost) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 || page > len(posts) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"rest_post_invalid_page_number"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(len(posts)))
		json.NewEncoder(w).Encode([]map[string]any{posts[page-1].json()})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func samplePosts() []wpPost {
	return []wpPost{
		{
			id:         101,
			title:      "第3回 東京オープン",
			content:    "<p>開催日：2026年4月29日</p><p>会場：東京都江東区有明コロシアム</p><p>参加費：3000円</p><p>ダブルス・ミックス</p><p>エントリー受付中</p>",
			categories: []int{3},
		},
		{
			id:         102,
			title:      "大阪 初心者体験会",
			content:    "<p>2026年1月12日 大阪府 初心者向け</p>",
			categories: []int{4},
		},
		{
			id:         103,
			title:      "日程未定のお知らせ",
			content:    "<p>詳細は追ってお知らせします</p>",
			categories: []int{99},
		},
	}
}

func writeManual(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "manual-events.json")
	body := `{"events":[
		{"id":"manual-kyoto","title":"京都ウィンターカップ","eventDate":"2026-03-20","prefecture":"京都府","category":"tournament","level":"intermediate","format":["doubles"],"sourceUrl":"https://example.com/kyoto"},
		{"title":"重複","eventDate":"2026-04-29","sourceUrl":"https://japanpickleball.org/news/101/"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newPipeline(t *testing.T, apiURL, manualPath string, m *metrics.Metrics, sinks ...application.EventSink) *application.IngestService {
	t.Helper()
	fetcher := wordpress.NewClient(wordpress.Config{
		BaseURL:     apiURL,
		CategoryIDs: []int{3, 4, 5, 6},
		PerPage:     1,
	})
	x := extractor.New(extractor.NewCategoryResolver(extractor.DefaultJPACategories()), event.SourceJPA, clock)
	return application.NewIngestService(fetcher, x, manual.NewLoader(manualPath), sinks,
		application.WithClock(clock),
		application.WithMetrics(m),
	)
}

func getJSON(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

type listBody struct {
	Events []*event.Event `json:"events"`
	Count  int            `json:"count"`
}

func ids(events []*event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

// TestIngestToAPI は取得 → 抽出 → 結合 → 書き出し → API参照までを通しで確認する
func TestIngestToAPI(t *testing.T) {
	dir := t.TempDir()
	wp := newFakeWordPress(t, samplePosts())
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	store := datafile.NewJSONStore(filepath.Join(dir, "events.json"))
	module := datafile.NewModuleWriter(filepath.Join(dir, "lib", "events", "data.ts"))
	svc := newPipeline(t, wp.URL, writeManual(t, dir), m, module, store)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Manual)
	assert.Equal(t, 1, result.Duplicates)
	// 今後（昇順）→ 日付なし → 過去（降順）
	assert.Equal(t, []string{"manual-kyoto", "jpa-101", "jpa-103", "jpa-102"}, ids(result.Events))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PostsFetchedTotal))

	tokyo := result.Events[1]
	assert.Equal(t, "2026-04-29", *tokyo.EventDate)
	assert.Equal(t, "東京都", *tokyo.Prefecture)
	assert.Equal(t, "¥3,000", *tokyo.EntryFee)
	assert.Equal(t, event.CategoryTournament, tokyo.Category)
	assert.Equal(t, event.RegistrationOpen, tokyo.RegistrationStatus)
	assert.Equal(t, event.CategoryOther, result.Events[2].Category)

	ts, err := os.ReadFile(filepath.Join(dir, "lib", "events", "data.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(ts), `"id": "manual-kyoto"`)
	assert.Contains(t, string(ts), "export function getUpcomingEvents")

	catalog := application.NewCatalogService(store, nil, 0, m, clock)
	n, err := catalog.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	e := server.New(server.Options{Catalog: catalog, Metrics: m, Gatherer: reg})

	t.Run("一覧", func(t *testing.T) {
		var body listBody
		require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events", &body))
		assert.Equal(t, 4, body.Count)
		assert.Equal(t, ids(result.Events), ids(body.Events))
	})

	t.Run("都道府県と種別で絞り込む", func(t *testing.T) {
		var body listBody
		require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events?category=tournament&prefecture=%E4%BA%AC%E9%83%BD%E5%BA%9C", &body))
		assert.Equal(t, []string{"manual-kyoto"}, ids(body.Events))
	})

	t.Run("今後のイベント", func(t *testing.T) {
		var body listBody
		require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events/upcoming?limit=1", &body))
		assert.Equal(t, []string{"manual-kyoto"}, ids(body.Events))
	})

	t.Run("過去のイベント", func(t *testing.T) {
		var body listBody
		require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events/past", &body))
		assert.Equal(t, []string{"jpa-102"}, ids(body.Events))
	})

	t.Run("ID指定", func(t *testing.T) {
		var got event.Event
		require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events/jpa-101", &got))
		assert.Equal(t, "第3回 東京オープン", got.Title)

		assert.Equal(t, http.StatusNotFound, getJSON(t, e, "/api/v1/events/jpa-999", nil))
	})
}

// TestIngestFetchFailureWritesNothing は取得失敗時に既存の出力を残すことを確認する
func TestIngestFetchFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"events":[]}`), 0o644))

	store := datafile.NewJSONStore(path)
	svc := newPipeline(t, srv.URL, filepath.Join(dir, "missing.json"), nil, store)

	_, err := svc.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, wordpress.ErrUnexpectedStatus)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(data))
}

// TestIngestToPostgres はPostgresへの書き出しとAPI参照を確認する
func TestIngestToPostgres(t *testing.T) {
	db := requireDB(t)
	dir := t.TempDir()
	wp := newFakeWordPress(t, samplePosts())

	repo := postgres.NewEventRepository(db)
	svc := newPipeline(t, wp.URL, writeManual(t, dir), nil, application.NewRepositorySink(repo, false))

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids(result.Events), ids(stored))

	catalog := application.NewCatalogService(repo, nil, 0, nil, clock)
	_, err = catalog.Reload(context.Background())
	require.NoError(t, err)

	e := server.New(server.Options{Catalog: catalog, Gatherer: prometheus.NewRegistry()})
	var body listBody
	require.Equal(t, http.StatusOK, getJSON(t, e, "/api/v1/events?source=manual", &body))
	assert.Equal(t, []string{"manual-kyoto"}, ids(body.Events))
}
