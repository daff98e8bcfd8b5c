package timewindow

import "errors"

var (
	// ErrWindowNotFound возвращается, когда окно не найдено
	ErrWindowNotFound = errors.New("timewindow.repository: time window not found")

	// ErrDuplicateWindow возвращается при повторе (магазин, день недели, начало)
	ErrDuplicateWindow = errors.New("timewindow.repository: duplicate window for store, weekday and start time")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("timewindow.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("timewindow.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("timewindow.repository: failed to scan row")
)
