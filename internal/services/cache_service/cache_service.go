package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"photowall/internal/domain/models"
	"photowall/internal/lib/logger/sl"
	"photowall/internal/metrics"
	"photowall/internal/storage"

	gocache "github.com/patrickmn/go-cache"
)

// indexEntryKey — служебный ключ, под которым хранится индекс живых записей
const indexEntryKey = "cache_index"

const memoryCleanupInterval = 10 * time.Minute

type ChangeOp string

const (
	ChangeOpPut     ChangeOp = "put"
	ChangeOpEvict   ChangeOp = "evict"
	ChangeOpSweep   ChangeOp = "sweep"
	ChangeOpDisable ChangeOp = "disable"
)

// ChangeEvent описывает изменение кэша для внешних наблюдателей
type ChangeEvent struct {
	Op      ChangeOp
	Key     string
	Removed int
}

type NotifyFunc func(ChangeEvent)

// TTLTable задает время жизни записей по типам
type TTLTable struct {
	PhotoList   time.Duration
	Pagination  time.Duration
	SinglePhoto time.Duration
}

func DefaultTTLTable() TTLTable {
	return TTLTable{
		PhotoList:   8 * time.Hour,
		Pagination:  4 * time.Hour,
		SinglePhoto: 72 * time.Hour,
	}
}

// For возвращает TTL для типа записи
func (t TTLTable) For(entryType models.EntryType) time.Duration {
	switch entryType {
	case models.EntryTypePhotoList:
		return t.PhotoList
	case models.EntryTypePagination:
		return t.Pagination
	case models.EntryTypeSinglePhoto:
		return t.SinglePhoto
	}
	return t.Pagination
}

type Option func(*CacheService)

func WithClock(clock func() time.Time) Option {
	return func(s *CacheService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithNotify(notify NotifyFunc) Option {
	return func(s *CacheService) {
		s.notify = notify
	}
}

func WithSweepInterval(interval time.Duration) Option {
	return func(s *CacheService) {
		if interval > 0 {
			s.sweepEvery = interval
		}
	}
}

// CacheService — типизированный кэш с TTL по типам записей поверх
// persistent store. Ни одна операция не возвращает ошибку наружу:
// отказ хранилища переводит кэш в выключенное состояние, а не роняет
// вызывающих. Горячие чтения обслуживает слой в памяти (go-cache),
// авторитетом по истечению остается persistent-запись.
type CacheService struct {
	log        *slog.Logger
	store      storage.PersistentStore
	memory     *gocache.Cache
	ttl        TTLTable
	sweepEvery time.Duration
	notify     NotifyFunc
	clock      func() time.Time

	mu        sync.Mutex
	index     map[string]time.Time // ключ -> момент истечения
	lastSweep time.Time
	disabled  bool
}

func NewCacheService(log *slog.Logger, store storage.PersistentStore, ttl TTLTable, opts ...Option) *CacheService {
	s := &CacheService{
		log:        log,
		store:      store,
		memory:     gocache.New(gocache.NoExpiration, memoryCleanupInterval),
		ttl:        ttl,
		sweepEvery: time.Hour,
		clock:      time.Now,
		index:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.loadIndex()

	return s
}

// Get возвращает запись, только если она еще не истекла.
// Истекшая запись считается промахом и удаляется лениво, при следующем
// sweep, чтобы чтения оставались дешевыми.
func (s *CacheService) Get(ctx context.Context, key string) (models.CacheEntry, bool) {
	const op = "services.CacheService.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return models.CacheEntry{}, false
	}

	now := s.clock()

	if cached, ok := s.memory.Get(key); ok {
		entry := cached.(models.CacheEntry)
		if !entry.Expired(now) {
			metrics.CacheHitsTotal.WithLabelValues(string(entry.Type)).Inc()
			return entry, true
		}
		s.memory.Delete(key)
	}

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.log.Warn("cache read failed, treating as miss",
				slog.String("op", op), slog.String("key", key), sl.Err(err))
		}
		metrics.CacheMissesTotal.Inc()
		return models.CacheEntry{}, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.log.Warn("corrupt cache entry, treating as miss",
			slog.String("op", op), slog.String("key", key), sl.Err(err))
		metrics.CacheMissesTotal.Inc()
		return models.CacheEntry{}, false
	}

	if entry.Expired(now) {
		metrics.CacheMissesTotal.Inc()
		return models.CacheEntry{}, false
	}

	s.memory.Set(key, entry, entry.ExpiresAt.Sub(now))
	metrics.CacheHitsTotal.WithLabelValues(string(entry.Type)).Inc()

	return entry, true
}

// Put сохраняет запись с TTL из таблицы типов (или переданной подсказкой).
// Каждая запись попутно запускает плановую уборку истекших (не чаще
// одного раза в sweepEvery). При переполнении хранилища выполняется
// принудительный sweep, аварийное вытеснение и один повтор записи;
// если не помогло — кэш выключается.
func (s *CacheService) Put(ctx context.Context, key string, entryType models.EntryType, payload json.RawMessage, ttlHint ...time.Duration) {
	const op = "services.CacheService.Put"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return
	}

	s.sweepExpiredLocked(ctx, false)

	ttl := s.ttl.For(entryType)
	if len(ttlHint) > 0 && ttlHint[0] > 0 {
		ttl = ttlHint[0]
	}

	now := s.clock()
	entry := models.CacheEntry{
		Key:       key,
		Type:      entryType,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		s.log.Error("cache entry marshal failed", slog.String("op", op), sl.Err(err))
		return
	}

	err = s.store.Set(ctx, key, string(raw))
	if errors.Is(err, storage.ErrCapacityExceeded) {
		s.sweepExpiredLocked(ctx, true)
		s.emergencyEvictLocked(ctx)
		err = s.store.Set(ctx, key, string(raw))
	}
	if err != nil {
		s.log.Error("cache write failed, disabling cache",
			slog.String("op", op), slog.String("key", key), sl.Err(err))
		s.disableLocked()
		return
	}

	s.index[key] = entry.ExpiresAt
	s.persistIndexLocked(ctx)
	s.memory.Set(key, entry, ttl)

	metrics.CachePutsTotal.WithLabelValues(string(entryType)).Inc()
	s.emit(ChangeEvent{Op: ChangeOpPut, Key: key})
}

// Invalidate явно удаляет запись
func (s *CacheService) Invalidate(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return
	}

	s.memory.Delete(key)
	if _, ok := s.index[key]; !ok {
		return
	}
	delete(s.index, key)
	if err := s.store.Remove(ctx, key); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("key", key), sl.Err(err))
	}
	s.persistIndexLocked(ctx)
}

// SweepExpired удаляет истекшие записи. Без force выполняется не чаще
// одного раза в sweepEvery (отметка времени последнего прохода).
func (s *CacheService) SweepExpired(ctx context.Context, force bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return 0
	}
	if !force && s.clock().Sub(s.lastSweep) < s.sweepEvery {
		return 0
	}

	return s.sweepExpiredLocked(ctx, force)
}

// Disabled сообщает, деградировал ли кэш после отказа хранилища
func (s *CacheService) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// Len возвращает число живых ключей в индексе
func (s *CacheService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

func (s *CacheService) sweepExpiredLocked(ctx context.Context, force bool) int {
	now := s.clock()
	if !force && now.Sub(s.lastSweep) < s.sweepEvery {
		return 0
	}
	s.lastSweep = now

	removed := 0
	for key, expiresAt := range s.index {
		if now.Before(expiresAt) {
			continue
		}
		delete(s.index, key)
		s.memory.Delete(key)
		if err := s.store.Remove(ctx, key); err != nil {
			s.log.Warn("sweep remove failed", slog.String("key", key), sl.Err(err))
		}
		removed++
	}

	if removed > 0 {
		s.persistIndexLocked(ctx)
		metrics.CacheEvictedTotal.WithLabelValues("sweep").Add(float64(removed))
		s.emit(ChangeEvent{Op: ChangeOpSweep, Removed: removed})
	}

	return removed
}

// emergencyEvictLocked вытесняет треть живых записей, ближайших к истечению
// (по ExpiresAt по возрастанию). Вызывается только при переполнении хранилища.
func (s *CacheService) emergencyEvictLocked(ctx context.Context) int {
	if len(s.index) == 0 {
		return 0
	}

	type liveKey struct {
		key       string
		expiresAt time.Time
	}

	keys := make([]liveKey, 0, len(s.index))
	for key, expiresAt := range s.index {
		keys = append(keys, liveKey{key: key, expiresAt: expiresAt})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].expiresAt.Before(keys[j].expiresAt)
	})

	count := len(keys) / 3
	if count == 0 {
		count = 1
	}

	for _, lk := range keys[:count] {
		delete(s.index, lk.key)
		s.memory.Delete(lk.key)
		if err := s.store.Remove(ctx, lk.key); err != nil {
			s.log.Warn("evict remove failed", slog.String("key", lk.key), sl.Err(err))
		}
	}

	s.persistIndexLocked(ctx)
	metrics.CacheEvictedTotal.WithLabelValues("emergency").Add(float64(count))
	s.emit(ChangeEvent{Op: ChangeOpEvict, Removed: count})

	s.log.Warn("emergency eviction performed", slog.Int("removed", count))

	return count
}

func (s *CacheService) disableLocked() {
	s.disabled = true
	s.memory.Flush()
	metrics.CacheDisabledTotal.Inc()
	s.emit(ChangeEvent{Op: ChangeOpDisable})
}

func (s *CacheService) persistIndexLocked(ctx context.Context) {
	raw, err := json.Marshal(s.index)
	if err != nil {
		s.log.Error("cache index marshal failed", sl.Err(err))
		return
	}
	if err := s.store.Set(ctx, indexEntryKey, string(raw)); err != nil {
		// индекс восстановится на следующем успешном Put
		s.log.Warn("cache index persist failed", sl.Err(err))
	}
}

func (s *CacheService) loadIndex() {
	raw, err := s.store.Get(context.Background(), indexEntryKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.log.Warn("cache index load failed", sl.Err(err))
		}
		return
	}
	if err := json.Unmarshal([]byte(raw), &s.index); err != nil {
		s.log.Warn("cache index corrupt, starting empty", sl.Err(err))
		s.index = make(map[string]time.Time)
	}
}

func (s *CacheService) emit(ev ChangeEvent) {
	if s.notify != nil {
		s.notify(ev)
	}
}
