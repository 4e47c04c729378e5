package rectpack

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 丢弃所有日志记录。Enabled 返回 false，调用方会直接跳过格式化。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger 设置 rectpack 使用的日志器。默认不输出任何日志，传入 nil 恢复默认。
//
// 使用的级别：
//   - [slog.LevelDebug]: 每一次画布增长和放置尝试
//   - [slog.LevelInfo]: 最终选定的画布尺寸
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger 返回当前的日志器。
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
