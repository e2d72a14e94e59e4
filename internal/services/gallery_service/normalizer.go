package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"photowall/internal/domain/models"
	"photowall/internal/metrics"

	"github.com/tidwall/gjson"
)

var errUnusableRecord = errors.New("record has no usable id or image")

// normalizeAll приводит сырые записи удаленной базы к модели Photo.
// Запись, которую не удалось нормализовать, отбрасывается и логируется,
// но не валит всю пачку.
func (s *GalleryService) normalizeAll(items []json.RawMessage, log *slog.Logger) []models.Photo {
	photos := make([]models.Photo, 0, len(items))

	for i, item := range items {
		photo, err := normalizeRecord(item)
		if err != nil {
			metrics.RecordsDroppedTotal.Inc()
			log.Warn("dropped malformed record",
				slog.Int("index", i),
				slog.String("reason", err.Error()),
			)
			continue
		}
		photos = append(photos, photo)
	}

	return photos
}

// normalizeRecord разбирает одну запись неоднородной формы.
// Поля ищутся по цепочке путей: плоская форма, затем вложенные
// properties базы документов. Отсутствующие поля получают безопасные
// значения по умолчанию.
func normalizeRecord(raw json.RawMessage) (models.Photo, error) {
	root := gjson.ParseBytes(raw)

	photo := models.Photo{
		ID: firstString(root,
			"id",
			"page_id",
		),
		Title: firstString(root,
			"title",
			"properties.title.title.0.plain_text",
			"properties.Name.title.0.plain_text",
		),
		ThumbnailURL: firstString(root,
			"thumbnail",
			"thumbnail_url",
			"cover.external.url",
			"cover.file.url",
			"properties.thumbnail.url",
			"properties.thumbnail.files.0.file.url",
		),
		OriginalURL: firstString(root,
			"original",
			"original_url",
			"properties.original.url",
			"properties.original.files.0.file.url",
		),
		Description: firstString(root,
			"description",
			"properties.description.rich_text.0.plain_text",
		),
		Category: firstString(root,
			"category",
			"properties.category.select.name",
		),
		ExtendedField: firstString(root,
			"extended_field",
			"properties.extended.rich_text.0.plain_text",
		),
		ExtendedFieldType: firstString(root,
			"extended_field_type",
			"properties.extended_type.select.name",
		),
	}

	photo.Date = parseDate(root)
	photo.Categories = parseCategories(root)
	photo.Normalize()

	if photo.OriginalURL == "" {
		photo.OriginalURL = photo.ThumbnailURL
	}

	if photo.ID == "" || photo.ThumbnailURL == "" {
		return models.Photo{}, errUnusableRecord
	}

	return photo, nil
}

func firstString(root gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := root.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func parseDate(root gjson.Result) time.Time {
	for _, path := range []string{"date", "created_time", "properties.date.date.start"} {
		v := root.Get(path)
		if !v.Exists() {
			continue
		}
		// числовое значение трактуется как unix-миллисекунды
		if v.Type == gjson.Number {
			return time.UnixMilli(v.Int()).UTC()
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v.String()); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func parseCategories(root gjson.Result) []string {
	categories := []string{}

	for _, path := range []string{"categories", "properties.categories.multi_select.#.name"} {
		v := root.Get(path)
		if !v.Exists() || !v.IsArray() {
			continue
		}
		v.ForEach(func(_, item gjson.Result) bool {
			if name := item.String(); name != "" {
				categories = append(categories, name)
			}
			return true
		})
		if len(categories) > 0 {
			break
		}
	}

	return categories
}
