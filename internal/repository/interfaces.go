package repository

import (
	"context"
	"encoding/json"
)

// PageRequest описывает запрос одной страницы к удаленной базе документов
type PageRequest struct {
	DatabaseID string // Идентификатор базы
	Cursor     string // Курсор продолжения, пустая строка = первая страница
	PageSize   int    // Размер страницы
	Sort       string // Направление сортировки по дате ("ascending"/"descending")
}

// RemotePage — страница сырых записей удаленной базы
type RemotePage struct {
	Items      []json.RawMessage // Записи в исходной неоднородной форме
	HasMore    bool              // Есть ли продолжение
	NextCursor string            // Курсор следующей страницы, пустая строка = нет
}

// RemoteContentClient — единственная сетевая граница фотостены.
// Для одного и того же курсора обязан быть идемпотентным,
// об отказе сообщает ошибкой, а не специальным значением.
type RemoteContentClient interface {
	FetchPage(ctx context.Context, req PageRequest) (RemotePage, error)
}
