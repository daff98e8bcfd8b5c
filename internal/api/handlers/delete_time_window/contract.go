package delete_time_window

import "context"

type TimeWindowService interface {
	Delete(ctx context.Context, windowID, staffID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
