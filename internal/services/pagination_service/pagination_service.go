package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"photowall/internal/domain/models"
	"photowall/internal/lib/logger/sl"
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateExhausted State = "exhausted"
	StateErrored   State = "errored"
)

var ErrNotInitialized = errors.New("pagination engine is not initialized")

// PageFetcher поставляет следующую удаленную страницу. Оркестратор
// передает сюда замыкание, которое нормализует записи и пишет их в кэш.
type PageFetcher func(ctx context.Context, cursor string, pageSize int) (photos []models.Photo, hasMore bool, nextCursor string, err error)

// AppendFunc получает очередную страницу после успешной загрузки
type AppendFunc func(photos []models.Photo, pageIndex int)

// RemoteInfo — стартовые сведения о продолжении на стороне удаленного API
type RemoteInfo struct {
	HasMore    bool
	NextCursor string
}

// Config задает параметры пагинации и скролл-триггера
type Config struct {
	PageSize           int           // Размер страницы
	BottomThresholdPx  float64       // Дистанция до низа контейнера, px
	LookaheadPx        float64       // Упреждение до сторожевого элемента, px
	Debounce           time.Duration // Окно схлопывания скролл-событий
	NarrowBreakpointPx float64       // Ширина, ниже которой скроллится документ
}

func DefaultConfig() Config {
	return Config{
		PageSize:           9,
		BottomThresholdPx:  10,
		LookaheadPx:        500,
		Debounce:           300 * time.Millisecond,
		NarrowBreakpointPx: 992,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	if c.BottomThresholdPx <= 0 {
		c.BottomThresholdPx = def.BottomThresholdPx
	}
	if c.LookaheadPx <= 0 {
		c.LookaheadPx = def.LookaheadPx
	}
	if c.Debounce <= 0 {
		c.Debounce = def.Debounce
	}
	if c.NarrowBreakpointPx <= 0 {
		c.NarrowBreakpointPx = def.NarrowBreakpointPx
	}
}

// PaginationService владеет текущим окном страниц, удаленным курсором,
// фильтром модуля и скролл-триггером. IsLoading — единственный страж
// от двух одновременных загрузок: проверка и установка флага происходят
// под одним мьютексом до точки приостановки (сетевого вызова).
type PaginationService struct {
	log *slog.Logger
	cfg Config

	mu          sync.Mutex
	initialized bool
	st          models.PaginationState
	state       State
	lastErr     error
	working     []models.Photo // активная (отфильтрованная) коллекция
	fetch       PageFetcher
	onAppend    AppendFunc
	generation  int64 // растет при смене фильтра/сбросе, отсекает устаревшие ответы

	// последнее известное удаленное продолжение, восстанавливается
	// при возврате фильтра в ALL
	remoteHasMore bool
	remoteCursor  string

	container ScrollContainer
	deb       *debouncer
}

func NewPaginationService(log *slog.Logger, cfg Config) *PaginationService {
	cfg.applyDefaults()

	return &PaginationService{
		log:       log,
		cfg:       cfg,
		state:     StateIdle,
		container: ContainerColumn,
		st: models.PaginationState{
			PageSize:     cfg.PageSize,
			ModuleFilter: models.ModuleAll,
		},
	}
}

// Initialize загружает движок первой страницей: страница 1, фильтр ALL,
// колбэк дозагрузки и взведенный скролл-триггер.
func (s *PaginationService) Initialize(seed []models.Photo, remote RemoteInfo, fetch PageFetcher, onAppend AppendFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deb != nil {
		s.deb.stop()
	}

	s.working = clonePhotos(seed)
	s.fetch = fetch
	s.onAppend = onAppend
	s.generation++
	s.state = StateIdle
	s.lastErr = nil
	s.remoteHasMore = remote.HasMore
	s.remoteCursor = remote.NextCursor

	hasMore := remote.HasMore || len(seed) > s.cfg.PageSize
	cursor := remote.NextCursor
	if !hasMore {
		cursor = ""
	}

	s.st = models.PaginationState{
		CurrentPageIndex: 1,
		PageSize:         s.cfg.PageSize,
		ModuleFilter:     models.ModuleAll,
		HasMore:          hasMore,
		NextCursor:       cursor,
	}
	if !hasMore {
		s.state = StateExhausted
	}

	s.deb = newDebouncer(s.cfg.Debounce, func() {
		if err := s.LoadMore(context.Background()); err != nil {
			s.log.Warn("scroll-triggered load failed", sl.Err(err))
		}
	})

	s.initialized = true
}

// Snapshot возвращает копию состояния пагинации
func (s *PaginationService) Snapshot() models.PaginationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// State возвращает состояние конечного автомата движка
func (s *PaginationService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError возвращает ошибку последней неудачной загрузки
func (s *PaginationService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LoadMore подгружает следующую страницу. No-op, пока идет загрузка или
// данных больше нет. При наличии удаленного курсора страница берется у
// удаленного API, иначе — срезом из уже имеющейся локальной коллекции.
// Ошибка не сдвигает ни курсор, ни счетчик страниц: следующий вызов
// повторит ту же страницу.
func (s *PaginationService) LoadMore(ctx context.Context) error {
	const op = "services.PaginationService.LoadMore"

	s.mu.Lock()

	if !s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	if s.st.IsLoading || !s.st.HasMore {
		s.mu.Unlock()
		return nil
	}

	s.st.IsLoading = true
	s.state = StateLoading

	if s.st.NextCursor != "" {
		return s.loadRemoteLocked(ctx, op)
	}
	return s.loadLocalLocked(op)
}

// loadRemoteLocked вызывается с захваченным мьютексом и освобождает его
// на время сетевого вызова
func (s *PaginationService) loadRemoteLocked(ctx context.Context, op string) error {
	gen := s.generation
	cursor := s.st.NextCursor
	pageSize := s.st.PageSize
	fetch := s.fetch
	s.mu.Unlock()

	photos, hasMore, nextCursor, err := fetch(ctx, cursor, pageSize)

	s.mu.Lock()

	if gen != s.generation {
		// фильтр или сброс обогнали ответ: принимаем, но не применяем
		s.st.IsLoading = false
		if s.state == StateLoading {
			s.state = StateIdle
		}
		s.mu.Unlock()
		s.log.Info("stale page response discarded", slog.String("op", op))
		return nil
	}

	if err != nil {
		s.st.IsLoading = false
		s.state = StateErrored
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error("page fetch failed", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.working = append(s.working, photos...)
	s.st.HasMore = hasMore
	s.st.NextCursor = nextCursor
	if !hasMore {
		s.st.NextCursor = ""
	}
	s.remoteHasMore = hasMore
	s.remoteCursor = s.st.NextCursor

	s.st.CurrentPageIndex++
	s.st.IsLoading = false
	s.lastErr = nil
	if s.st.HasMore {
		s.state = StateIdle
	} else {
		s.state = StateExhausted
	}

	onAppend := s.onAppend
	pageIndex := s.st.CurrentPageIndex
	s.mu.Unlock()

	if onAppend != nil {
		onAppend(clonePhotos(photos), pageIndex)
	}

	return nil
}

// loadLocalLocked отдает следующее окно из уже загруженной коллекции
func (s *PaginationService) loadLocalLocked(op string) error {
	start := s.st.CurrentPageIndex * s.st.PageSize
	if start >= len(s.working) {
		s.st.HasMore = false
		s.st.NextCursor = ""
		s.st.IsLoading = false
		s.state = StateExhausted
		s.mu.Unlock()
		return nil
	}

	end := start + s.st.PageSize
	if end > len(s.working) {
		end = len(s.working)
	}
	page := clonePhotos(s.working[start:end])

	s.st.CurrentPageIndex++
	s.st.HasMore = end < len(s.working)
	if !s.st.HasMore {
		s.st.NextCursor = ""
		s.state = StateExhausted
	} else {
		s.state = StateIdle
	}
	s.st.IsLoading = false
	s.lastErr = nil

	onAppend := s.onAppend
	pageIndex := s.st.CurrentPageIndex
	s.mu.Unlock()

	s.log.Info("local page appended",
		slog.String("op", op), slog.Int("page", pageIndex), slog.Int("items", len(page)))

	if onAppend != nil {
		onAppend(page, pageIndex)
	}

	return nil
}

// ChangeModuleType переключает фильтр модуля на уже загруженных данных:
// счетчик страниц сбрасывается на 1, hasMore выводится из размера
// отфильтрованного набора, первая страница возвращается синхронно.
// Удаленной дозагрузки для фильтра нет; продолжение по курсору
// восстанавливается только при возврате в ALL.
func (s *PaginationService) ChangeModuleType(filter models.ModuleFilter, subset []models.Photo) []models.Photo {
	s.mu.Lock()

	s.generation++
	s.working = clonePhotos(subset)
	s.st.ModuleFilter = filter
	s.st.CurrentPageIndex = 1
	s.st.HasMore = len(subset) > s.st.PageSize
	s.st.NextCursor = ""
	s.lastErr = nil

	if filter == models.ModuleAll && s.remoteHasMore {
		s.st.HasMore = true
		s.st.NextCursor = s.remoteCursor
	}

	if s.st.HasMore {
		s.state = StateIdle
	} else {
		s.state = StateExhausted
	}

	end := s.st.PageSize
	if end > len(s.working) {
		end = len(s.working)
	}
	page := clonePhotos(s.working[:end])

	s.mu.Unlock()

	return page
}

// GetPhotosForCurrentPage возвращает окно текущей страницы
func (s *PaginationService) GetPhotosForCurrentPage() []models.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.CurrentPageIndex < 1 {
		return []models.Photo{}
	}

	start := (s.st.CurrentPageIndex - 1) * s.st.PageSize
	if start >= len(s.working) {
		return []models.Photo{}
	}
	end := start + s.st.PageSize
	if end > len(s.working) {
		end = len(s.working)
	}

	return clonePhotos(s.working[start:end])
}

// WorkingSetSize возвращает размер активной коллекции
func (s *PaginationService) WorkingSetSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.working)
}

// Reset возвращает движок в исходное состояние и снимает скролл-триггер
func (s *PaginationService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deb != nil {
		s.deb.stop()
		s.deb = nil
	}

	s.generation++
	s.initialized = false
	s.working = nil
	s.fetch = nil
	s.onAppend = nil
	s.lastErr = nil
	s.state = StateIdle
	s.remoteHasMore = false
	s.remoteCursor = ""
	s.st = models.PaginationState{
		PageSize:     s.cfg.PageSize,
		ModuleFilter: models.ModuleAll,
	}
}

func clonePhotos(photos []models.Photo) []models.Photo {
	out := make([]models.Photo, len(photos))
	copy(out, photos)
	return out
}
