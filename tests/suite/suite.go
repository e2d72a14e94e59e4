package suite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"photowall/internal/config"
	"photowall/internal/repository"
	cachesvc "photowall/internal/services/cache_service"
	gallerysvc "photowall/internal/services/gallery_service"
	pagesvc "photowall/internal/services/pagination_service"
	viewsvc "photowall/internal/services/view_service"
	memstorage "photowall/internal/storage/memory"

	"github.com/brianvoe/gofakeit"
)

type Suite struct {
	*testing.T
	Cfg     *config.Config
	Gallery *gallerysvc.GalleryService
	Cache   *cachesvc.CacheService
	Views   *viewsvc.ViewService
	Remote  *FakeRemote
}

// FakeRemote изображает удаленную базу контента: отдает заранее
// сгенерированные записи страницами по курсору и считает обращения
type FakeRemote struct {
	records  []json.RawMessage
	pageSize int

	Calls int
}

// NewFakeRemote генерирует total записей; каждая третья помечена
// категорией travel
func NewFakeRemote(total, pageSize int) *FakeRemote {
	records := make([]json.RawMessage, 0, total)
	for i := 0; i < total; i++ {
		categories := `[]`
		if i%3 == 0 {
			categories = `["travel"]`
		}
		records = append(records, json.RawMessage(fmt.Sprintf(
			`{"id":"photo-%d","title":%q,"thumbnail":"https://cdn.example.com/%d_thumb.jpg","original":"https://cdn.example.com/%d.jpg","date":"2024-05-01","description":%q,"categories":%s}`,
			i, gofakeit.Sentence(3), i, i, gofakeit.Sentence(6), categories,
		)))
	}

	return &FakeRemote{records: records, pageSize: pageSize}
}

func (f *FakeRemote) FetchPage(_ context.Context, req repository.PageRequest) (repository.RemotePage, error) {
	f.Calls++

	start := 0
	if req.Cursor != "" {
		fmt.Sscanf(req.Cursor, "cursor-%d", &start)
	}

	end := start + f.pageSize
	if end > len(f.records) {
		end = len(f.records)
	}

	page := repository.RemotePage{
		Items:   f.records[start:end],
		HasMore: end < len(f.records),
	}
	if page.HasMore {
		page.NextCursor = fmt.Sprintf("cursor-%d", end)
	}

	return page, nil
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()
	t.Parallel()

	cfg := config.MustLoadPath(configPath())

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Hour)

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	remote := NewFakeRemote(27, cfg.Pagination.PageSize)

	cache := cachesvc.NewCacheService(log, memstorage.New(cfg.Storage.MemoryCapacityBytes), cachesvc.TTLTable{
		PhotoList:   cfg.Cache.PhotoListTTL,
		Pagination:  cfg.Cache.PaginationTTL,
		SinglePhoto: cfg.Cache.SinglePhotoTTL,
	}, cachesvc.WithSweepInterval(cfg.Cache.SweepInterval))

	engine := pagesvc.NewPaginationService(log, pagesvc.Config{
		PageSize:           cfg.Pagination.PageSize,
		BottomThresholdPx:  cfg.Pagination.BottomThresholdPx,
		LookaheadPx:        cfg.Pagination.LookaheadPx,
		Debounce:           cfg.Pagination.Debounce,
		NarrowBreakpointPx: cfg.Pagination.NarrowBreakpointPx,
	})

	views := viewsvc.NewViewService(log, nil)

	gallery := gallerysvc.NewGalleryService(
		log,
		cache,
		remote,
		engine,
		views,
		gallerysvc.NewSlogRenderer(log),
		cfg.Gallery.Container,
		cfg.Remote.Sort,
	)

	t.Cleanup(func() {
		t.Helper()
		gallery.Cleanup()
		cancelCtx()
	})

	return ctx, &Suite{
		T:       t,
		Cfg:     cfg,
		Gallery: gallery,
		Cache:   cache,
		Views:   views,
		Remote:  remote,
	}
}

func configPath() string {
	const key = "CONFIG_PATH"

	if v := os.Getenv(key); v != "" {
		return v
	}

	return "../config/config.yaml"
}
