// Package wordpress はWordPress REST APIから投稿をページ単位で取得する
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
)

// ErrUnexpectedStatus はページ範囲外（400）以外のエラーステータス
var ErrUnexpectedStatus = errors.New("APIが想定外のステータスを返しました")

const (
	DefaultPerPage   = 50
	DefaultPageDelay = 500 * time.Millisecond
	totalPagesHeader = "X-WP-TotalPages"
	userAgent        = "pickleball-events-fetcher/1.0"
)

// Config は取得設定
type Config struct {
	BaseURL     string
	CategoryIDs []int
	PerPage     int
	PageDelay   time.Duration
	Timeout     time.Duration
}

// RequestObserver はページ取得ごとの結果を受け取る
type RequestObserver func(status int, elapsed time.Duration)

// Client はWordPress REST APIクライアント
type Client struct {
	cfg      Config
	http     *http.Client
	sleep    func(ctx context.Context, d time.Duration) error
	observer RequestObserver
}

// NewClient は Client を作成する。Timeout が0ならクライアントの既定値（無制限）のまま
func NewClient(cfg Config) *Client {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		sleep: sleepContext,
	}
}

// WithObserver はリクエスト結果の通知先を設定する
func (c *Client) WithObserver(o RequestObserver) *Client {
	c.observer = o
	return c
}

// post はAPIレスポンスの1件分
type post struct {
	ID         int      `json:"id"`
	Date       string   `json:"date"`
	Link       string   `json:"link"`
	Categories []int    `json:"categories"`
	Title      rendered `json:"title"`
	Excerpt    rendered `json:"excerpt"`
	Content    rendered `json:"content"`
}

type rendered struct {
	Rendered string `json:"rendered"`
}

func (p post) toRaw() event.RawPost {
	return event.RawPost{
		ID:         p.ID,
		Title:      p.Title.Rendered,
		Excerpt:    p.Excerpt.Rendered,
		Content:    p.Content.Rendered,
		Categories: p.Categories,
		Date:       p.Date,
		Link:       p.Link,
	}
}

// FetchPosts は1ページ目から順に全ページを取得する。
// 空ページ、400応答、総ページ数到達のいずれかで終了し、それ以外のエラーは即座に返す
func (c *Client) FetchPosts(ctx context.Context) ([]event.RawPost, error) {
	var all []event.RawPost
	for page := 1; ; page++ {
		if page > 1 {
			if err := c.sleep(ctx, c.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		posts, totalPages, done, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if done || len(posts) == 0 {
			break
		}
		for _, p := range posts {
			all = append(all, p.toRaw())
		}
		logger.Debug("ページを取得しました",
			zap.Int("page", page),
			zap.Int("posts", len(posts)),
			zap.Int("total_pages", totalPages),
		)
		if totalPages > 0 && page >= totalPages {
			break
		}
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (posts []post, totalPages int, done bool, err error) {
	u, err := c.pageURL(page)
	if err != nil {
		return nil, 0, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, false, fmt.Errorf("ページ%dの取得に失敗しました: %w", page, err)
	}
	defer resp.Body.Close()
	if c.observer != nil {
		c.observer(resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode == http.StatusBadRequest {
		// ページ範囲外
		return nil, 0, true, nil
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, false, fmt.Errorf("%w: page=%d status=%d body=%s",
			ErrUnexpectedStatus, page, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, 0, false, fmt.Errorf("ページ%dのレスポンス解析に失敗しました: %w", page, err)
	}
	totalPages, _ = strconv.Atoi(resp.Header.Get(totalPagesHeader))
	return posts, totalPages, false, nil
}

func (c *Client) pageURL(page int) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/posts")
	if err != nil {
		return "", fmt.Errorf("APIのURLが不正です: %w", err)
	}
	q := u.Query()
	if len(c.cfg.CategoryIDs) > 0 {
		ids := make([]string, len(c.cfg.CategoryIDs))
		for i, id := range c.cfg.CategoryIDs {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("categories", strings.Join(ids, ","))
	}
	q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
