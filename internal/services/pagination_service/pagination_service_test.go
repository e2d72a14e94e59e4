package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"photowall/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"log/slog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func makePhotos(n int, prefix string, categories ...string) []models.Photo {
	photos := make([]models.Photo, 0, n)
	for i := 0; i < n; i++ {
		photos = append(photos, models.Photo{
			ID:           fmt.Sprintf("%s-%d", prefix, i),
			Title:        fmt.Sprintf("photo %d", i),
			ThumbnailURL: "https://cdn.example.com/thumb.jpg",
			Categories:   categories,
		})
	}
	return photos
}

func newEngineUnderTest(cfg Config) *PaginationService {
	return NewPaginationService(slog.Default(), cfg)
}

// staticFetcher отдает заранее подготовленные страницы по курсору
func staticFetcher(pages map[string]struct {
	photos     []models.Photo
	hasMore    bool
	nextCursor string
}, calls *atomic.Int64) PageFetcher {
	return func(_ context.Context, cursor string, _ int) ([]models.Photo, bool, string, error) {
		calls.Add(1)
		page, ok := pages[cursor]
		if !ok {
			return nil, false, "", errors.New("unknown cursor")
		}
		return page.photos, page.hasMore, page.nextCursor, nil
	}
}

func TestPagination_LoadMoreBeforeInitialize(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())

	err := engine.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestPagination_InitializeSetsFirstPage(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	seed := makePhotos(9, "p")
	engine.Initialize(seed, RemoteInfo{HasMore: true, NextCursor: "c2"}, nil, nil)

	st := engine.Snapshot()
	assert.Equal(t, 1, st.CurrentPageIndex)
	assert.Equal(t, models.ModuleAll, st.ModuleFilter)
	assert.True(t, st.HasMore)
	assert.Equal(t, "c2", st.NextCursor)
	assert.False(t, st.IsLoading)
	assert.Equal(t, StateIdle, engine.State())

	page := engine.GetPhotosForCurrentPage()
	require.Len(t, page, 9)
	assert.Equal(t, "p-0", page[0].ID)
}

func TestPagination_InitializeExhaustedWhenNothingMore(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	engine.Initialize(makePhotos(5, "p"), RemoteInfo{}, nil, nil)

	st := engine.Snapshot()
	assert.False(t, st.HasMore)
	assert.Empty(t, st.NextCursor)
	assert.Equal(t, StateExhausted, engine.State())

	// дозагрузка на исчерпанном движке — no-op
	require.NoError(t, engine.LoadMore(context.Background()))
	assert.Equal(t, 1, engine.Snapshot().CurrentPageIndex)
}

func TestPagination_RemoteLoadMore(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	var calls atomic.Int64
	fetch := staticFetcher(map[string]struct {
		photos     []models.Photo
		hasMore    bool
		nextCursor string
	}{
		"c2": {photos: makePhotos(9, "q"), hasMore: false},
	}, &calls)

	var appended []models.Photo
	var appendedPage int
	engine.Initialize(makePhotos(9, "p"), RemoteInfo{HasMore: true, NextCursor: "c2"}, fetch,
		func(photos []models.Photo, pageIndex int) {
			appended = photos
			appendedPage = pageIndex
		})

	require.NoError(t, engine.LoadMore(context.Background()))

	assert.Equal(t, int64(1), calls.Load())
	assert.Len(t, appended, 9)
	assert.Equal(t, 2, appendedPage)
	assert.Equal(t, 18, engine.WorkingSetSize())

	st := engine.Snapshot()
	assert.Equal(t, 2, st.CurrentPageIndex)
	assert.False(t, st.HasMore)
	assert.Empty(t, st.NextCursor)
	assert.False(t, st.IsLoading)
	assert.Equal(t, StateExhausted, engine.State())

	// второй вызов уже ничего не грузит
	require.NoError(t, engine.LoadMore(context.Background()))
	assert.Equal(t, int64(1), calls.Load())
}

func TestPagination_PageIndexMonotonic(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	var calls atomic.Int64
	fetch := staticFetcher(map[string]struct {
		photos     []models.Photo
		hasMore    bool
		nextCursor string
	}{
		"c2": {photos: makePhotos(9, "q"), hasMore: true, nextCursor: "c3"},
		"c3": {photos: makePhotos(4, "r"), hasMore: false},
	}, &calls)

	engine.Initialize(makePhotos(9, "p"), RemoteInfo{HasMore: true, NextCursor: "c2"}, fetch, nil)

	indexes := []int{engine.Snapshot().CurrentPageIndex}
	require.NoError(t, engine.LoadMore(context.Background()))
	indexes = append(indexes, engine.Snapshot().CurrentPageIndex)
	require.NoError(t, engine.LoadMore(context.Background()))
	indexes = append(indexes, engine.Snapshot().CurrentPageIndex)

	assert.Equal(t, []int{1, 2, 3}, indexes)
	assert.Equal(t, 22, engine.WorkingSetSize())
	assert.Equal(t, StateExhausted, engine.State())
}

func TestPagination_SingleFlightFetch(t *testing.T) {
	// свойство: проверка и установка isLoading происходят до точки
	// приостановки, поэтому конкурентные LoadMore дают один сетевой вызов
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(_ context.Context, _ string, _ int) ([]models.Photo, bool, string, error) {
		calls.Add(1)
		close(started)
		<-release
		return makePhotos(9, "q"), false, "", nil
	}

	engine.Initialize(makePhotos(9, "p"), RemoteInfo{HasMore: true, NextCursor: "c2"}, fetch, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, engine.LoadMore(context.Background()))
	}()

	<-started
	// пока первый запрос висит, повторные вызовы — no-op
	require.NoError(t, engine.LoadMore(context.Background()))
	require.NoError(t, engine.LoadMore(context.Background()))
	assert.True(t, engine.Snapshot().IsLoading)

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 18, engine.WorkingSetSize())
}

func TestPagination_FetchErrorKeepsCursor(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	var calls atomic.Int64
	failFirst := true
	fetch := func(_ context.Context, cursor string, _ int) ([]models.Photo, bool, string, error) {
		calls.Add(1)
		if failFirst {
			failFirst = false
			return nil, false, "", errors.New("upstream timeout")
		}
		require.Equal(t, "c2", cursor)
		return makePhotos(9, "q"), false, "", nil
	}

	engine.Initialize(makePhotos(9, "p"), RemoteInfo{HasMore: true, NextCursor: "c2"}, fetch, nil)

	err := engine.LoadMore(context.Background())
	require.Error(t, err)

	st := engine.Snapshot()
	assert.Equal(t, 1, st.CurrentPageIndex, "failed load must not advance the page")
	assert.Equal(t, "c2", st.NextCursor, "failed load must not consume the cursor")
	assert.False(t, st.IsLoading)
	assert.Equal(t, StateErrored, engine.State())
	assert.Error(t, engine.LastError())

	// повтор идет с тем же курсором и проходит
	require.NoError(t, engine.LoadMore(context.Background()))
	assert.Equal(t, 2, engine.Snapshot().CurrentPageIndex)
	assert.NoError(t, engine.LastError())
	assert.Equal(t, int64(2), calls.Load())
}

func TestPagination_StaleResponseDiscarded(t *testing.T) {
	// ответ, обогнанный сменой фильтра, принимается, но не применяется
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(_ context.Context, _ string, _ int) ([]models.Photo, bool, string, error) {
		close(started)
		<-release
		return makePhotos(9, "stale"), true, "c3", nil
	}

	seed := append(makePhotos(6, "p"), makePhotos(3, "t", "travel")...)
	engine.Initialize(seed, RemoteInfo{HasMore: true, NextCursor: "c2"}, fetch, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, engine.LoadMore(context.Background()))
	}()

	<-started
	travel := makePhotos(3, "t", "travel")
	page := engine.ChangeModuleType(models.ModuleFilter("travel"), travel)
	require.Len(t, page, 3)

	close(release)
	wg.Wait()

	// устаревшая страница не попала в рабочий набор
	assert.Equal(t, 3, engine.WorkingSetSize())
	st := engine.Snapshot()
	assert.Equal(t, models.ModuleFilter("travel"), st.ModuleFilter)
	assert.False(t, st.IsLoading)
	assert.Equal(t, 1, st.CurrentPageIndex)
}

func TestPagination_LocalWindows(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	// 27 фотографий без удаленного продолжения: три локальных страницы
	engine.Initialize(makePhotos(27, "p"), RemoteInfo{}, nil, nil)

	st := engine.Snapshot()
	assert.True(t, st.HasMore)
	assert.Empty(t, st.NextCursor)

	require.NoError(t, engine.LoadMore(context.Background()))
	assert.Equal(t, 2, engine.Snapshot().CurrentPageIndex)

	page := engine.GetPhotosForCurrentPage()
	require.Len(t, page, 9)
	assert.Equal(t, "p-9", page[0].ID)

	require.NoError(t, engine.LoadMore(context.Background()))
	st = engine.Snapshot()
	assert.Equal(t, 3, st.CurrentPageIndex)
	assert.False(t, st.HasMore)
	assert.Equal(t, StateExhausted, engine.State())

	require.NoError(t, engine.LoadMore(context.Background()))
	assert.Equal(t, 3, engine.Snapshot().CurrentPageIndex)
}

func TestPagination_ChangeModuleType(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())
	defer engine.Reset()

	all := append(makePhotos(21, "p"), makePhotos(6, "t", "travel")...)
	engine.Initialize(all, RemoteInfo{HasMore: true, NextCursor: "c2"}, nil, nil)

	travel := makePhotos(6, "t", "travel")
	page := engine.ChangeModuleType(models.ModuleFilter("travel"), travel)

	// шесть фотографий помещаются на одну страницу
	require.Len(t, page, 6)
	st := engine.Snapshot()
	assert.Equal(t, 1, st.CurrentPageIndex)
	assert.Equal(t, models.ModuleFilter("travel"), st.ModuleFilter)
	assert.False(t, st.HasMore, "filtered paging never continues remotely")
	assert.Empty(t, st.NextCursor)
	assert.Equal(t, StateExhausted, engine.State())

	// возврат в ALL восстанавливает удаленное продолжение
	page = engine.ChangeModuleType(models.ModuleAll, all)
	require.Len(t, page, 9)
	st = engine.Snapshot()
	assert.Equal(t, 1, st.CurrentPageIndex)
	assert.True(t, st.HasMore)
	assert.Equal(t, "c2", st.NextCursor)
	assert.Equal(t, StateIdle, engine.State())
}

func TestPagination_Reset(t *testing.T) {
	engine := newEngineUnderTest(DefaultConfig())

	engine.Initialize(makePhotos(9, "p"), RemoteInfo{HasMore: true, NextCursor: "c2"}, nil, nil)
	engine.Reset()

	assert.Equal(t, 0, engine.WorkingSetSize())
	assert.ErrorIs(t, engine.LoadMore(context.Background()), ErrNotInitialized)

	st := engine.Snapshot()
	assert.Equal(t, 0, st.CurrentPageIndex)
	assert.Equal(t, models.ModuleAll, st.ModuleFilter)
}
