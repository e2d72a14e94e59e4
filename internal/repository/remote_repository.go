package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"photowall/internal/lib/logger/sl"
	"photowall/internal/metrics"

	"github.com/tidwall/gjson"
)

// RemoteContentRepo ходит в удаленную базу документов по HTTP.
// Ответ разбирается через gjson: форма записей неоднородная и
// жесткое декодирование в структуры здесь не работает.
type RemoteContentRepo struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
}

func NewRemoteContentRepo(log *slog.Logger, baseURL string, timeout time.Duration) *RemoteContentRepo {
	return &RemoteContentRepo{
		log:     log,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *RemoteContentRepo) FetchPage(ctx context.Context, req PageRequest) (RemotePage, error) {
	const op = "repository.RemoteContentRepo.FetchPage"

	log := r.log.With(
		slog.String("op", op),
		slog.String("database_id", req.DatabaseID),
		slog.Int("page_size", req.PageSize),
	)

	body := map[string]interface{}{
		"page_size": req.PageSize,
	}
	if req.Cursor != "" {
		body["start_cursor"] = req.Cursor
	}
	if req.Sort != "" {
		body["sorts"] = []map[string]string{
			{"timestamp": "created_time", "direction": req.Sort},
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return RemotePage{}, fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/databases/%s/query", r.baseURL, req.DatabaseID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return RemotePage{}, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	metrics.RemoteFetchesTotal.Inc()

	resp, err := r.client.Do(httpReq)
	if err != nil {
		metrics.RemoteFetchFailuresTotal.Inc()
		log.Error("remote fetch failed", sl.Err(err))
		return RemotePage{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RemoteFetchFailuresTotal.Inc()
		return RemotePage{}, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RemoteFetchFailuresTotal.Inc()
		log.Error("remote returned non-2xx", slog.Int("status", resp.StatusCode))
		return RemotePage{}, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	root := gjson.ParseBytes(payload)
	results := root.Get("results")
	if !results.Exists() || !results.IsArray() {
		metrics.RemoteFetchFailuresTotal.Inc()
		return RemotePage{}, fmt.Errorf("%s: malformed response: no results array", op)
	}

	page := RemotePage{
		HasMore:    root.Get("has_more").Bool(),
		NextCursor: root.Get("next_cursor").String(),
	}
	// hasMore=false означает отсутствие курсора
	if !page.HasMore {
		page.NextCursor = ""
	}

	results.ForEach(func(_, item gjson.Result) bool {
		page.Items = append(page.Items, json.RawMessage(item.Raw))
		return true
	})

	log.Info("page fetched",
		slog.Int("items", len(page.Items)),
		slog.Bool("has_more", page.HasMore),
	)

	return page, nil
}
