package app

import (
	"log/slog"

	httpapp "photowall/internal/app/http"
	"photowall/internal/config"
	"photowall/internal/repository"
	cachesvc "photowall/internal/services/cache_service"
	gallerysvc "photowall/internal/services/gallery_service"
	pagesvc "photowall/internal/services/pagination_service"
	viewsvc "photowall/internal/services/view_service"
	"photowall/internal/storage"
	memstorage "photowall/internal/storage/memory"
	redisstorage "photowall/internal/storage/redis"
	httprouters "photowall/internal/transport/http"

	"github.com/google/uuid"
)

type App struct {
	HTTPServer *httpapp.Server
	Gallery    *gallerysvc.GalleryService
	Cache      *cachesvc.CacheService

	redisClient *redisstorage.Client
}

// New собирает фотостену: persistent store по конфигу, кэш, удаленный
// клиент, движок пагинации, координатор представления и HTTP-сервер.
// Все зависимости передаются через конструкторы, синглтонов нет.
func New(log *slog.Logger, cfg *config.Config) *App {
	var store storage.PersistentStore
	var redisClient *redisstorage.Client

	switch cfg.Storage.Backend {
	case "redis":
		redisClient = redisstorage.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
		store = redisstorage.NewStore(redisClient)
	default:
		store = memstorage.New(cfg.Storage.MemoryCapacityBytes)
	}

	cache := cachesvc.NewCacheService(log, store,
		cachesvc.TTLTable{
			PhotoList:   cfg.Cache.PhotoListTTL,
			Pagination:  cfg.Cache.PaginationTTL,
			SinglePhoto: cfg.Cache.SinglePhotoTTL,
		},
		cachesvc.WithSweepInterval(cfg.Cache.SweepInterval),
	)

	remote := repository.NewRemoteContentRepo(log, cfg.Remote.BaseURL, cfg.Remote.Timeout)

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

	routers := httprouters.NewRouter(log, cfg.Remote.DatabaseID, gallery)

	// cookie-сессии хранят только предпочтение фильтра, секрет per-process
	server := httpapp.New(log, uuid.NewString(), cfg.HTTP.Host, cfg.HTTP.Port, routers)

	return &App{
		HTTPServer:  server,
		Gallery:     gallery,
		Cache:       cache,
		redisClient: redisClient,
	}
}

// Stop разбирает сессию галереи и закрывает внешние соединения
func (a *App) Stop() {
	a.Gallery.Cleanup()

	if a.redisClient != nil {
		a.redisClient.Close()
	}
}
