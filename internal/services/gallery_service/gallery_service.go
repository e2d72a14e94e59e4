package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"photowall/internal/domain/models"
	"photowall/internal/lib/logger/sl"
	"photowall/internal/repository"
	cachesvc "photowall/internal/services/cache_service"
	pagesvc "photowall/internal/services/pagination_service"
	viewsvc "photowall/internal/services/view_service"

	"github.com/google/uuid"
)

var (
	ErrContainerMissing = errors.New("gallery container is missing")
	ErrNotInitialized   = errors.New("gallery is not initialized")
	ErrPhotoNotFound    = errors.New("photo not found")
)

// Renderer строит представление из уже подготовленных данных.
// Ядро никогда не заглядывает в результат отрисовки.
type Renderer interface {
	Render(container string, photos []models.Photo, totalFiltered int, onItemActivated func(photoID string)) error
}

// cachedPage — полезная нагрузка кэшируемой страницы пагинации
type cachedPage struct {
	Photos     []models.Photo `json:"photos"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

// GalleryService — фасад фотостены: владеет канонической коллекцией
// фотографий, связывает кэш, удаленный API, движок пагинации и
// координатор представления.
type GalleryService struct {
	log       *slog.Logger
	sessionID uuid.UUID
	cache     *cachesvc.CacheService
	remote    repository.RemoteContentClient
	engine    *pagesvc.PaginationService
	views     *viewsvc.ViewService
	renderer  Renderer
	container string
	sort      string

	// держится на весь Initialize: посев выполняется не более одного раза,
	// параллельный вызов ждет результата первого
	initMu sync.Mutex

	mu           sync.Mutex
	databaseID   string
	photos       []models.Photo // каноническая коллекция сессии
	seen         map[string]struct{}
	activeFilter models.ModuleFilter
	initialized  bool
}

func NewGalleryService(
	log *slog.Logger,
	cache *cachesvc.CacheService,
	remote repository.RemoteContentClient,
	engine *pagesvc.PaginationService,
	views *viewsvc.ViewService,
	renderer Renderer,
	container string,
	sort string,
) *GalleryService {
	return &GalleryService{
		log:          log,
		sessionID:    uuid.New(),
		cache:        cache,
		remote:       remote,
		engine:       engine,
		views:        views,
		renderer:     renderer,
		container:    container,
		sort:         sort,
		seen:         make(map[string]struct{}),
		activeFilter: models.ModuleAll,
	}
}

// Initialize поднимает сессию галереи: кэш, при промахе — первая страница
// удаленного API, нормализация, запись обратно в кэш, посев движка
// пагинации и переход в режим grid. Повторный вызов на живой сессии — no-op;
// параллельные вызовы сериализуются, посев и сетевой запрос выполняются
// один раз.
func (s *GalleryService) Initialize(ctx context.Context, databaseID string) error {
	const op = "services.GalleryService.Initialize"

	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", s.sessionID.String()),
		slog.String("database_id", databaseID),
	)

	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.container == "" {
		// без точки монтирования ничто ниже по течению не работоспособно
		return fmt.Errorf("%s: %w", op, ErrContainerMissing)
	}

	s.views.ForceMode(models.ViewModeLoading)
	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingStart})

	seed, info, err := s.loadSeed(ctx, databaseID, log)
	if err != nil {
		s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingEnd, Err: err})
		s.views.SetMode(models.ViewModeError)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.databaseID = databaseID
	s.photos = seed
	s.seen = make(map[string]struct{}, len(seed))
	for _, p := range seed {
		s.seen[p.ID] = struct{}{}
	}
	s.activeFilter = models.ModuleAll
	s.initialized = true
	s.mu.Unlock()

	s.engine.Initialize(seed, info, s.fetchRemotePage, s.onPageAppended)

	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingEnd})
	s.views.SetMode(models.ViewModeGrid)

	s.render(s.engine.GetPhotosForCurrentPage(), len(seed))

	log.Info("gallery initialized",
		slog.Int("photos", len(seed)),
		slog.Bool("has_more", info.HasMore),
	)

	return nil
}

// loadSeed достает стартовый список из кэша или с удаленного API
func (s *GalleryService) loadSeed(ctx context.Context, databaseID string, log *slog.Logger) ([]models.Photo, pagesvc.RemoteInfo, error) {
	listKey := models.PhotoListKey(databaseID)

	if entry, ok := s.cache.Get(ctx, listKey); ok {
		var photos []models.Photo
		if err := json.Unmarshal(entry.Payload, &photos); err == nil {
			info := pagesvc.RemoteInfo{}
			if pgEntry, ok := s.cache.Get(ctx, models.PaginationKey(databaseID, "")); ok {
				var page cachedPage
				if err := json.Unmarshal(pgEntry.Payload, &page); err == nil {
					info.HasMore = page.HasMore
					info.NextCursor = page.NextCursor
				}
			}
			log.Info("photo list served from cache", slog.Int("photos", len(photos)))
			return photos, info, nil
		}
		log.Warn("cached photo list is corrupt, refetching")
		s.cache.Invalidate(ctx, listKey)
	}

	page, err := s.remote.FetchPage(ctx, repository.PageRequest{
		DatabaseID: databaseID,
		PageSize:   s.engine.Snapshot().PageSize,
		Sort:       s.sort,
	})
	if err != nil {
		return nil, pagesvc.RemoteInfo{}, fmt.Errorf("fetch first page: %w", err)
	}

	photos := s.normalizeAll(page.Items, log)
	info := pagesvc.RemoteInfo{HasMore: page.HasMore, NextCursor: page.NextCursor}

	if raw, err := json.Marshal(photos); err == nil {
		s.cache.Put(ctx, listKey, models.EntryTypePhotoList, raw)
	}
	if raw, err := json.Marshal(cachedPage{Photos: photos, HasMore: page.HasMore, NextCursor: page.NextCursor}); err == nil {
		s.cache.Put(ctx, models.PaginationKey(databaseID, ""), models.EntryTypePagination, raw)
	}

	return photos, info, nil
}

// fetchRemotePage — PageFetcher для движка пагинации: тянет страницу по
// курсору, нормализует и кэширует ее
func (s *GalleryService) fetchRemotePage(ctx context.Context, cursor string, pageSize int) ([]models.Photo, bool, string, error) {
	const op = "services.GalleryService.fetchRemotePage"

	s.mu.Lock()
	databaseID := s.databaseID
	s.mu.Unlock()

	log := s.log.With(slog.String("op", op), slog.String("cursor", cursor))

	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingStart})

	page, err := s.remote.FetchPage(ctx, repository.PageRequest{
		DatabaseID: databaseID,
		Cursor:     cursor,
		PageSize:   pageSize,
		Sort:       s.sort,
	})
	if err != nil {
		s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingEnd, Err: err})
		return nil, false, "", err
	}

	photos := s.normalizeAll(page.Items, log)

	if raw, err := json.Marshal(cachedPage{Photos: photos, HasMore: page.HasMore, NextCursor: page.NextCursor}); err == nil {
		s.cache.Put(ctx, models.PaginationKey(databaseID, cursor), models.EntryTypePagination, raw)
	}

	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventLoadingEnd})

	return photos, page.HasMore, page.NextCursor, nil
}

// onPageAppended вливает новую страницу в каноническую коллекцию
// (страницы из локального окна уже в ней) и отрисовывает ее
func (s *GalleryService) onPageAppended(photos []models.Photo, pageIndex int) {
	s.mu.Lock()
	for _, p := range photos {
		if _, ok := s.seen[p.ID]; ok {
			continue
		}
		s.seen[p.ID] = struct{}{}
		s.photos = append(s.photos, p)
	}
	total := len(s.photos)
	s.mu.Unlock()

	s.log.Info("page appended",
		slog.String("session_id", s.sessionID.String()),
		slog.Int("page", pageIndex),
		slog.Int("items", len(photos)),
		slog.Int("total", total),
	)

	s.render(photos, s.engine.WorkingSetSize())
}

// LoadMore запрашивает следующую страницу у движка пагинации
func (s *GalleryService) LoadMore(ctx context.Context) error {
	const op = "services.GalleryService.LoadMore"

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	s.mu.Unlock()

	if err := s.engine.LoadMore(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FilterByModule пересчитывает активное подмножество по членству в
// категории (включая устаревшее одиночное поле) и отдает его движку.
// Сетевых вызовов нет: фильтр работает по уже загруженным данным.
func (s *GalleryService) FilterByModule(moduleType string) ([]models.Photo, error) {
	const op = "services.GalleryService.FilterByModule"

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}

	filter := models.ModuleFilter(moduleType)
	if moduleType == "" {
		filter = models.ModuleAll
	}

	var subset []models.Photo
	if filter == models.ModuleAll {
		subset = make([]models.Photo, len(s.photos))
		copy(subset, s.photos)
	} else {
		for _, p := range s.photos {
			if p.HasCategory(string(filter)) {
				subset = append(subset, p)
			}
		}
	}

	s.activeFilter = filter
	s.mu.Unlock()

	firstPage := s.engine.ChangeModuleType(filter, subset)

	s.log.Info("module filter changed",
		slog.String("op", op),
		slog.String("filter", string(filter)),
		slog.Int("subset", len(subset)),
	)

	s.render(firstPage, len(subset))

	return firstPage, nil
}

// SelectPhoto находит фотографию, кэширует ее отдельной записью и
// переводит представление в режим detail
func (s *GalleryService) SelectPhoto(ctx context.Context, photoID string) (models.Photo, error) {
	const op = "services.GalleryService.SelectPhoto"

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return models.Photo{}, fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}

	var found *models.Photo
	for i := range s.photos {
		if s.photos[i].ID == photoID {
			found = &s.photos[i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		if entry, ok := s.cache.Get(ctx, models.SinglePhotoKey(photoID)); ok {
			var photo models.Photo
			if err := json.Unmarshal(entry.Payload, &photo); err == nil {
				found = &photo
			}
		}
	}
	if found == nil {
		return models.Photo{}, fmt.Errorf("%s: %w", op, ErrPhotoNotFound)
	}

	photo := *found

	if raw, err := json.Marshal(photo); err == nil {
		s.cache.Put(ctx, models.SinglePhotoKey(photoID), models.EntryTypeSinglePhoto, raw)
	}

	s.views.SetMode(models.ViewModeDetail)
	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventPhotoSelected, Photo: &photo})

	return photo, nil
}

// Cleanup разбирает перекрестные ссылки компонентов: движок и координатор
// возвращаются в исходное состояние, коллекции очищаются. Единственное
// место сноса, поддерживает повторные циклы Initialize/Cleanup.
func (s *GalleryService) Cleanup() {
	const op = "services.GalleryService.Cleanup"

	s.engine.Reset()
	s.views.Reset()

	s.mu.Lock()
	s.photos = nil
	s.seen = make(map[string]struct{})
	s.activeFilter = models.ModuleAll
	s.databaseID = ""
	s.initialized = false
	s.mu.Unlock()

	s.log.Info("gallery cleaned up",
		slog.String("op", op),
		slog.String("session_id", s.sessionID.String()),
	)
}

// CurrentPage возвращает окно текущей страницы
func (s *GalleryService) CurrentPage() []models.Photo {
	return s.engine.GetPhotosForCurrentPage()
}

// Pagination возвращает снимок состояния пагинации
func (s *GalleryService) Pagination() models.PaginationState {
	return s.engine.Snapshot()
}

// Mode возвращает текущий режим представления
func (s *GalleryService) Mode() models.ViewMode {
	return s.views.Mode()
}

// TotalPhotos возвращает размер канонической коллекции
func (s *GalleryService) TotalPhotos() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// HandleScroll пробрасывает снимок геометрии скролла в движок
func (s *GalleryService) HandleScroll(m pagesvc.ScrollMetrics) {
	s.engine.HandleScroll(m)
}

// HandleResize пробрасывает ширину вьюпорта в движок
func (s *GalleryService) HandleResize(viewportWidth float64) {
	s.engine.HandleResize(viewportWidth)
}

func (s *GalleryService) render(photos []models.Photo, totalFiltered int) {
	if s.renderer == nil {
		return
	}

	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventBeforeRender, Count: len(photos)})

	if err := s.renderer.Render(s.container, photos, totalFiltered, s.onItemActivated); err != nil {
		s.log.Error("render failed", sl.Err(err))
	}

	s.views.Dispatch(viewsvc.Event{Kind: viewsvc.EventAfterRender, Count: len(photos)})
}

func (s *GalleryService) onItemActivated(photoID string) {
	if _, err := s.SelectPhoto(context.Background(), photoID); err != nil {
		s.log.Warn("photo activation failed", slog.String("photo_id", photoID), sl.Err(err))
	}
}
