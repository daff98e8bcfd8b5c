package timewindow

import "errors"

var (
	// ErrCacheRead возвращается при ошибке чтения из Redis
	ErrCacheRead = errors.New("timewindow.cache: failed to read")

	// ErrCacheWrite возвращается при ошибке записи в Redis
	ErrCacheWrite = errors.New("timewindow.cache: failed to write")

	// ErrCacheDecode возвращается при повреждённом значении в кэше
	ErrCacheDecode = errors.New("timewindow.cache: failed to decode")
)
