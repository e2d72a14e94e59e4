package models

type ViewMode string

const (
	ViewModeLoading ViewMode = "loading"
	ViewModeGrid    ViewMode = "grid"
	ViewModeDetail  ViewMode = "detail"
	ViewModeError   ViewMode = "error"
)

// Valid сообщает, является ли значение допустимым режимом отображения
func (m ViewMode) Valid() bool {
	switch m {
	case ViewModeLoading, ViewModeGrid, ViewModeDetail, ViewModeError:
		return true
	}
	return false
}
