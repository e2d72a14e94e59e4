package services

import (
	"log/slog"

	"photowall/internal/domain/models"
)

// SlogRenderer — серверный заменитель DOM-отрисовщика: построение разметки
// не входит в ядро, поэтому здесь пачки только протоколируются.
type SlogRenderer struct {
	log *slog.Logger
}

func NewSlogRenderer(log *slog.Logger) *SlogRenderer {
	return &SlogRenderer{log: log}
}

func (r *SlogRenderer) Render(container string, photos []models.Photo, totalFiltered int, _ func(photoID string)) error {
	r.log.Debug("render batch",
		slog.String("container", container),
		slog.Int("photos", len(photos)),
		slog.Int("total_filtered", totalFiltered),
	)
	return nil
}
