package models

import (
	"time"
)

// Photo представляет нормализованную фотографию фотостены
type Photo struct {
	ID                string    `json:"id"`                            // Стабильный идентификатор записи в удаленной базе
	Title             string    `json:"title"`                         // Заголовок фотографии
	ThumbnailURL      string    `json:"thumbnail_url"`                 // URL миниатюры
	OriginalURL       string    `json:"original_url"`                  // URL оригинала
	Date              time.Time `json:"date"`                          // Дата съемки или публикации
	Category          string    `json:"category,omitempty"`            // Устаревшее одиночное поле категории
	Categories        []string  `json:"categories"`                    // Категории (никогда не nil, пустой массив = без категории)
	Description       string    `json:"description"`                   // Описание фотографии
	ExtendedField     string    `json:"extended_field,omitempty"`      // Дополнительное поле
	ExtendedFieldType string    `json:"extended_field_type,omitempty"` // Тип дополнительного поля
}

// HasCategory проверяет принадлежность фотографии категории,
// поддерживает и устаревшее одиночное поле, и список категорий
func (p Photo) HasCategory(category string) bool {
	if category == "" {
		return false
	}
	if p.Category == category {
		return true
	}
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Normalize приводит фотографию к инвариантам модели:
// Categories никогда не nil, устаревшее поле учтено в списке
func (p *Photo) Normalize() {
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Category != "" && !contains(p.Categories, p.Category) {
		p.Categories = append(p.Categories, p.Category)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
