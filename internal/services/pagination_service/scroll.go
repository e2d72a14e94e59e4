package services

import (
	"sync"
	"time"
)

type ScrollContainer string

const (
	// ContainerColumn — правая колонка на широких вьюпортах,
	// скроллится сама и имеет собственную высоту
	ContainerColumn ScrollContainer = "column"
	// ContainerDocument — основная область контента на узких вьюпортах,
	// скроллится документ целиком
	ContainerDocument ScrollContainer = "document"
)

// ScrollMetrics — снимок геометрии скролла, приходящий из UI-слоя.
// Ядро не трогает DOM: все величины уже измерены снаружи.
type ScrollMetrics struct {
	ScrollTop      float64 // Прокрученное расстояние от верха
	ScrollHeight   float64 // Полная высота прокручиваемого содержимого
	ViewportHeight float64 // Высота вьюпорта (для документного скролла)
	ClientHeight   float64 // Видимая высота контейнера-колонки
	SentinelTop    float64 // Отступ сторожевого элемента от верха видимой области
}

// HandleScroll оценивает снимок геометрии и через дебаунс запрашивает
// дозагрузку. Всплеск скролл-событий схлопывается в один запрос.
func (s *PaginationService) HandleScroll(m ScrollMetrics) {
	s.mu.Lock()
	deb := s.deb
	triggered := s.initialized && s.shouldTriggerLocked(m)
	s.mu.Unlock()

	if triggered && deb != nil {
		deb.trigger()
	}
}

// shouldTriggerLocked решает, пора ли грузить следующую страницу.
// Два условия существуют потому, что контейнерный и документный скролл
// требуют разной математики определения низа: контейнер меряется своей
// видимой высотой, документ — высотой вьюпорта.
func (s *PaginationService) shouldTriggerLocked(m ScrollMetrics) bool {
	if m.ScrollHeight <= 0 {
		return false
	}

	visible := m.ViewportHeight
	if s.container == ContainerColumn {
		visible = m.ClientHeight
	}
	if visible <= 0 {
		return false
	}

	remaining := m.ScrollHeight - m.ScrollTop - visible
	if remaining <= s.cfg.BottomThresholdPx {
		return true
	}

	percent := (m.ScrollTop + visible) / m.ScrollHeight
	sentinelNear := m.SentinelTop <= visible+s.cfg.LookaheadPx

	return percent > 0.85 && sentinelNear
}

// HandleResize переоценивает активный контейнер скролла: колонка на
// широких вьюпортах, документ на узких. Активен всегда ровно один.
func (s *PaginationService) HandleResize(viewportWidth float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if viewportWidth >= s.cfg.NarrowBreakpointPx {
		s.container = ContainerColumn
	} else {
		s.container = ContainerDocument
	}
}

// ActiveContainer возвращает активный контейнер скролла
func (s *PaginationService) ActiveContainer() ScrollContainer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}

// debouncer откладывает вызов fn, перезаводя таймер на каждом триггере
type debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	fn    func()
	timer *time.Timer
}

func newDebouncer(d time.Duration, fn func()) *debouncer {
	return &debouncer{d: d, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.d, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
