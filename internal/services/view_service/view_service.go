package services

import (
	"log/slog"
	"sync"

	"photowall/internal/domain/models"
	"photowall/internal/metrics"
)

type EventKind string

const (
	EventLoadingStart  EventKind = "loading_start"
	EventLoadingEnd    EventKind = "loading_end"
	EventBeforeRender  EventKind = "before_render"
	EventAfterRender   EventKind = "after_render"
	EventThemeChanged  EventKind = "theme_changed"
	EventPhotoSelected EventKind = "photo_selected"
	EventModeChanged   EventKind = "mode_changed"
)

// Event — типизированное событие шины. Поля заполняются в зависимости
// от Kind, лишние остаются нулевыми.
type Event struct {
	Kind         EventKind
	Mode         models.ViewMode // для EventModeChanged
	PreviousMode models.ViewMode // для EventModeChanged
	Photo        *models.Photo   // для EventPhotoSelected
	Theme        string          // для EventThemeChanged
	Count        int             // для render-событий: размер пачки
	Err          error           // для EventLoadingEnd при ошибке
}

type Handler func(Event)

// MarkerApplier применяет маркер режима к внешнему представлению
// (в браузере это был CSS-класс на контейнере)
type MarkerApplier func(previous, next models.ViewMode)

type subscription struct {
	id      int64
	handler Handler
}

// ViewService — конечный автомат режима отображения плюс шина событий.
// Режим всегда ровно один; переходы происходят только через SetMode/ForceMode.
// Доставка событий синхронная и упорядоченная: модель исполнения фотостены —
// одна кооперативная очередь, и обработчики должны видеть состояние
// на момент отправки.
type ViewService struct {
	log         *slog.Logger
	applyMarker MarkerApplier

	mu       sync.RWMutex
	mode     models.ViewMode
	nextID   int64
	handlers map[EventKind][]subscription
}

func NewViewService(log *slog.Logger, applyMarker MarkerApplier) *ViewService {
	return &ViewService{
		log:         log,
		applyMarker: applyMarker,
		mode:        models.ViewModeLoading,
		handlers:    make(map[EventKind][]subscription),
	}
}

// Mode возвращает текущий режим
func (s *ViewService) Mode() models.ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode переводит автомат в новый режим. Повторная установка текущего
// режима — no-op, событие не отправляется. Возвращает true, если переход
// принят.
func (s *ViewService) SetMode(mode models.ViewMode) bool {
	return s.setMode(mode, false)
}

// ForceMode выполняет переход даже в уже активный режим
func (s *ViewService) ForceMode(mode models.ViewMode) bool {
	return s.setMode(mode, true)
}

func (s *ViewService) setMode(mode models.ViewMode, force bool) bool {
	const op = "services.ViewService.SetMode"

	if !mode.Valid() {
		s.log.Warn("rejected unknown view mode",
			slog.String("op", op), slog.String("mode", string(mode)))
		return false
	}

	s.mu.Lock()
	if mode == s.mode && !force {
		s.mu.Unlock()
		return false
	}
	previous := s.mode
	s.mode = mode
	s.mu.Unlock()

	if s.applyMarker != nil {
		s.applyMarker(previous, mode)
	}

	metrics.ModeTransitionsTotal.WithLabelValues(string(previous), string(mode)).Inc()

	s.Dispatch(Event{
		Kind:         EventModeChanged,
		Mode:         mode,
		PreviousMode: previous,
	})

	return true
}

// On регистрирует обработчик события и возвращает идентификатор подписки
func (s *ViewService) On(kind EventKind, handler Handler) int64 {
	if handler == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.handlers[kind] = append(s.handlers[kind], subscription{
		id:      s.nextID,
		handler: handler,
	})

	return s.nextID
}

// Off снимает подписку по идентификатору
func (s *ViewService) Off(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, subs := range s.handlers {
		for i, sub := range subs {
			if sub.id == id {
				s.handlers[kind] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch синхронно доставляет событие всем подписчикам в порядке
// регистрации. Паника в обработчике гасится и логируется, не прерывая
// остальных.
func (s *ViewService) Dispatch(ev Event) {
	s.mu.RLock()
	subs := make([]subscription, len(s.handlers[ev.Kind]))
	copy(subs, s.handlers[ev.Kind])
	s.mu.RUnlock()

	for _, sub := range subs {
		s.callSafely(sub, ev)
	}
}

func (s *ViewService) callSafely(sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked",
				slog.String("kind", string(ev.Kind)),
				slog.Int64("subscription", sub.id),
				slog.Any("panic", r),
			)
		}
	}()

	sub.handler(ev)
}

// Reset возвращает координатор в исходное состояние: режим LOADING,
// реестр обработчиков пуст. Событий при этом не отправляется.
func (s *ViewService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = models.ViewModeLoading
	s.handlers = make(map[EventKind][]subscription)
}
