package models

import (
	"encoding/json"
	"time"
)

type EntryType string

const (
	EntryTypePhotoList   EntryType = "photo_list"
	EntryTypePagination  EntryType = "pagination"
	EntryTypeSinglePhoto EntryType = "single_photo"
)

// CacheEntry представляет типизированную запись локального кэша
type CacheEntry struct {
	Key       string          `json:"key"`        // Составной ключ (тип + id базы + курсор/фильтр)
	Type      EntryType       `json:"type"`       // Тип записи, определяет TTL по умолчанию
	Payload   json.RawMessage `json:"payload"`    // Полезная нагрузка в сыром JSON
	CreatedAt time.Time       `json:"created_at"` // Момент записи
	ExpiresAt time.Time       `json:"expires_at"` // Момент истечения, вычисляется при записи
}

// Expired сообщает, истекла ли запись на момент now.
// Запись валидна строго пока now < ExpiresAt.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// PhotoListKey возвращает ключ кэша полного списка фотографий базы
func PhotoListKey(databaseID string) string {
	return "photo_list_" + databaseID
}

// PaginationKey возвращает ключ кэша страницы пагинации.
// Пустой курсор означает первую страницу.
func PaginationKey(databaseID, cursor string) string {
	if cursor == "" {
		return "pagination_" + databaseID
	}
	return "pagination_" + databaseID + "_" + cursor
}

// SinglePhotoKey возвращает ключ кэша отдельной фотографии
func SinglePhotoKey(photoID string) string {
	return "single_photo_" + photoID
}
