package dto

import (
	"time"

	"photowall/internal/domain/models"
)

// PhotoResponse представляет собой DTO фотографии в ответе API
type PhotoResponse struct {
	ID                string    `json:"id"`                            // Идентификатор записи
	Title             string    `json:"title"`                         // Заголовок фотографии
	ThumbnailURL      string    `json:"thumbnail_url"`                 // URL миниатюры
	OriginalURL       string    `json:"original_url"`                  // URL оригинала
	Date              time.Time `json:"date"`                          // Дата фотографии
	Categories        []string  `json:"categories"`                    // Список категорий
	Description       string    `json:"description"`                   // Описание
	ExtendedField     string    `json:"extended_field,omitempty"`      // Дополнительное поле
	ExtendedFieldType string    `json:"extended_field_type,omitempty"` // Тип дополнительного поля
}

// FeedResponse представляет собой DTO ленты фотостены
type FeedResponse struct {
	Photos   []PhotoResponse `json:"photos"`    // Фотографии текущей страницы
	Page     int             `json:"page"`      // Номер текущей страницы
	PageSize int             `json:"page_size"` // Размер страницы
	HasMore  bool            `json:"has_more"`  // Есть ли продолжение
	Filter   string          `json:"filter"`    // Активный фильтр модуля
	Mode     string          `json:"mode"`      // Текущий режим представления
	Total    int             `json:"total"`     // Размер канонической коллекции
}

// ScrollEventRequest — снимок геометрии скролла от UI-слоя
type ScrollEventRequest struct {
	ScrollTop      float64 `json:"scroll_top" validate:"gte=0"`
	ScrollHeight   float64 `json:"scroll_height" validate:"required,gt=0"`
	ViewportHeight float64 `json:"viewport_height" validate:"gte=0"`
	ClientHeight   float64 `json:"client_height" validate:"gte=0"`
	SentinelTop    float64 `json:"sentinel_top" validate:"gte=0"`
}

// ResizeEventRequest — новая ширина вьюпорта
type ResizeEventRequest struct {
	ViewportWidth float64 `json:"viewport_width" validate:"required,gt=0"`
}

// ToPhotoResponse преобразует модель в DTO
func ToPhotoResponse(p models.Photo) PhotoResponse {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	return PhotoResponse{
		ID:                p.ID,
		Title:             p.Title,
		ThumbnailURL:      p.ThumbnailURL,
		OriginalURL:       p.OriginalURL,
		Date:              p.Date,
		Categories:        categories,
		Description:       p.Description,
		ExtendedField:     p.ExtendedField,
		ExtendedFieldType: p.ExtendedFieldType,
	}
}

// ToPhotoResponses преобразует срез моделей в DTO
func ToPhotoResponses(photos []models.Photo) []PhotoResponse {
	out := make([]PhotoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, ToPhotoResponse(p))
	}
	return out
}
