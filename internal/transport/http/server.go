package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"photowall/internal/domain/models"
	"photowall/internal/lib/logger/sl"
	gallerysvc "photowall/internal/services/gallery_service"
	pagesvc "photowall/internal/services/pagination_service"
	"photowall/internal/transport/http/dto"
	"photowall/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName      = "photowall_session"
	sessionModuleKey = "module_filter"
)

type GalleryService interface {
	Initialize(ctx context.Context, databaseID string) error
	LoadMore(ctx context.Context) error
	FilterByModule(module string) ([]models.Photo, error)
	SelectPhoto(ctx context.Context, photoID string) (models.Photo, error)
	CurrentPage() []models.Photo
	Pagination() models.PaginationState
	Mode() models.ViewMode
	TotalPhotos() int
	HandleScroll(m pagesvc.ScrollMetrics)
	HandleResize(viewportWidth float64)
	Cleanup()
}

type Routers struct {
	log        *slog.Logger
	databaseID string
	Gallery    GalleryService
}

func NewRouter(log *slog.Logger, databaseID string, gallery GalleryService) *Routers {
	return &Routers{
		log:        log,
		databaseID: databaseID,
		Gallery:    gallery,
	}
}

// GetFeed godoc
// @Summary Лента фотостены
// @Description Возвращает текущую страницу ленты. При первом обращении инициализирует сессию галереи (кэш или удаленная база).
// @Tags feed
// @Produce json
// @Success 200 {object} response.Response{data=dto.FeedResponse}
// @Failure 502 {object} response.ErrorResponse "Удаленная база недоступна"
// @Router /api/v1/feed [get]
func (r *Routers) GetFeed(c echo.Context) error {
	const op = "http.routers.GetFeed"

	log := r.log.With(slog.String("op", op))

	if err := r.Gallery.Initialize(c.Request().Context(), r.databaseID); err != nil {
		log.Error("gallery initialize failed", sl.Err(err))
		return c.JSON(http.StatusBadGateway, response.ErrUpstreamUnavailable)
	}

	// восстанавливаем сохраненный фильтр посетителя
	if module := r.sessionModule(c); module != "" && module != string(r.Gallery.Pagination().ModuleFilter) {
		if _, err := r.Gallery.FilterByModule(module); err != nil {
			log.Warn("stored filter could not be applied", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(r.feedResponse()))
}

// LoadMore godoc
// @Summary Дозагрузка ленты
// @Description Подгружает следующую страницу. No-op, когда загрузка уже идет или данных больше нет.
// @Tags feed
// @Produce json
// @Success 200 {object} response.Response{data=dto.FeedResponse}
// @Failure 502 {object} response.ErrorResponse "Загрузка страницы не удалась, можно повторить"
// @Router /api/v1/feed/more [post]
func (r *Routers) LoadMore(c echo.Context) error {
	const op = "http.routers.LoadMore"

	log := r.log.With(slog.String("op", op))

	if err := r.Gallery.LoadMore(c.Request().Context()); err != nil {
		if errors.Is(err, gallerysvc.ErrNotInitialized) {
			return c.JSON(http.StatusConflict, response.ErrGalleryNotReady)
		}
		log.Error("load more failed", sl.Err(err))
		return c.JSON(http.StatusBadGateway, response.ErrUpstreamUnavailable)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(r.feedResponse()))
}

// FilterByModule godoc
// @Summary Фильтр ленты по модулю
// @Description Пересчитывает ленту по категории на уже загруженных данных, без сетевых вызовов. Выбор запоминается в сессии.
// @Tags feed
// @Produce json
// @Param module path string true "Категория или all"
// @Success 200 {object} response.Response{data=dto.FeedResponse}
// @Failure 409 {object} response.ErrorResponse "Галерея не инициализирована"
// @Router /api/v1/feed/filter/{module} [get]
func (r *Routers) FilterByModule(c echo.Context) error {
	const op = "http.routers.FilterByModule"

	log := r.log.With(slog.String("op", op))

	module := c.Param("module")

	if _, err := r.Gallery.FilterByModule(module); err != nil {
		if errors.Is(err, gallerysvc.ErrNotInitialized) {
			return c.JSON(http.StatusConflict, response.ErrGalleryNotReady)
		}
		log.Error("filter failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("filter_failed", err.Error()))
	}

	r.storeSessionModule(c, module)

	return c.JSON(http.StatusOK, response.SuccessResponse(r.feedResponse()))
}

// GetPhoto godoc
// @Summary Фотография по идентификатору
// @Description Возвращает фотографию и переводит представление в режим detail.
// @Tags photos
// @Produce json
// @Param id path string true "Идентификатор фотографии"
// @Success 200 {object} response.Response{data=dto.PhotoResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/photos/{id} [get]
func (r *Routers) GetPhoto(c echo.Context) error {
	const op = "http.routers.GetPhoto"

	log := r.log.With(slog.String("op", op))

	photo, err := r.Gallery.SelectPhoto(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gallerysvc.ErrPhotoNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPhotoNotFound)
		}
		if errors.Is(err, gallerysvc.ErrNotInitialized) {
			return c.JSON(http.StatusConflict, response.ErrGalleryNotReady)
		}
		log.Error("select photo failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("select_failed", err.Error()))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.ToPhotoResponse(photo)))
}

// ScrollEvent godoc
// @Summary Скролл-событие от UI
// @Description Принимает снимок геометрии скролла; при приближении к низу дозагрузка запускается через дебаунс.
// @Tags events
// @Accept json
// @Success 202 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/feed/scroll [post]
func (r *Routers) ScrollEvent(c echo.Context) error {
	var req dto.ScrollEventRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	r.Gallery.HandleScroll(pagesvc.ScrollMetrics{
		ScrollTop:      req.ScrollTop,
		ScrollHeight:   req.ScrollHeight,
		ViewportHeight: req.ViewportHeight,
		ClientHeight:   req.ClientHeight,
		SentinelTop:    req.SentinelTop,
	})

	return c.JSON(http.StatusAccepted, response.SuccessResponse(nil))
}

// ResizeEvent godoc
// @Summary Resize-событие от UI
// @Description Переоценивает активный контейнер скролла по новой ширине вьюпорта.
// @Tags events
// @Accept json
// @Success 202 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/feed/resize [post]
func (r *Routers) ResizeEvent(c echo.Context) error {
	var req dto.ResizeEventRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	r.Gallery.HandleResize(req.ViewportWidth)

	return c.JSON(http.StatusAccepted, response.SuccessResponse(nil))
}

// Health godoc
// @Summary Проверка живости
// @Tags service
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/health [get]
func (r *Routers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"mode": string(r.Gallery.Mode()),
	}))
}

func (r *Routers) feedResponse() dto.FeedResponse {
	st := r.Gallery.Pagination()

	return dto.FeedResponse{
		Photos:   dto.ToPhotoResponses(r.Gallery.CurrentPage()),
		Page:     st.CurrentPageIndex,
		PageSize: st.PageSize,
		HasMore:  st.HasMore,
		Filter:   string(st.ModuleFilter),
		Mode:     string(r.Gallery.Mode()),
		Total:    r.Gallery.TotalPhotos(),
	}
}

func (r *Routers) sessionModule(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	if v, ok := sess.Values[sessionModuleKey].(string); ok {
		return v
	}
	return ""
}

func (r *Routers) storeSessionModule(c echo.Context, module string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return
	}
	sess.Values[sessionModuleKey] = module
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		r.log.Warn("session save failed", sl.Err(err))
	}
}
