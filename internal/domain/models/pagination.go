package models

type ModuleFilter string

// ModuleAll отключает фильтрацию по категориям
const ModuleAll ModuleFilter = "all"

// PaginationState представляет текущее окно пагинации фотостены
type PaginationState struct {
	CurrentPageIndex int          `json:"current_page_index"` // Номер текущей страницы, начиная с 1
	PageSize         int          `json:"page_size"`          // Размер страницы
	ModuleFilter     ModuleFilter `json:"module_filter"`      // Активный фильтр по категории
	HasMore          bool         `json:"has_more"`           // Есть ли еще данные (локально или удаленно)
	NextCursor       string       `json:"next_cursor"`        // Курсор удаленного API, пустая строка = нет
	IsLoading        bool         `json:"is_loading"`         // Идет ли загрузка (не более одной одновременно)
}
