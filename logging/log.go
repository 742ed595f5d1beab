package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// 日志档位，与 run.log 落盘档位保持一致。
const (
	LevelDebug = 1
	LevelInfo  = 2
	LevelWarn  = 3
	LevelError = 4
)

// LevelName 档位名称。
func LevelName(level int) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger 日志门面接口。
// 说明：为最小侵入提供结构化（Info 等）与格式化（Infof 等）两组方法与 With 派生。
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugf(ctx context.Context, format string, args ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(args ...any) Logger
}

// Hook 在每条日志写出后被旁路调用，用于附加通道（如任务运行日志落盘）。
// 注意：Hook 内不得再调用 L()，以避免递归。
type Hook func(ctx context.Context, level int, msg string, args ...any)

// SlogLogger 基于标准库 slog 的默认实现。
type SlogLogger struct{ l *slog.Logger }

// NewSlogLogger 创建默认 slog 日志器（文本输出到 stderr，INFO 档）。
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// SetLevel 设置日志级别。
func (s *SlogLogger) SetLevel(level slog.Level) {
	s.l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
	fireHook(ctx, LevelDebug, msg, args...)
}
func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
	fireHook(ctx, LevelInfo, msg, args...)
}
func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
	fireHook(ctx, LevelWarn, msg, args...)
}
func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
	fireHook(ctx, LevelError, msg, args...)
}
func (s *SlogLogger) Debugf(ctx context.Context, format string, args ...any) {
	s.Debug(ctx, fmt.Sprintf(format, args...))
}
func (s *SlogLogger) Infof(ctx context.Context, format string, args ...any) {
	s.Info(ctx, fmt.Sprintf(format, args...))
}
func (s *SlogLogger) Warnf(ctx context.Context, format string, args ...any) {
	s.Warn(ctx, fmt.Sprintf(format, args...))
}
func (s *SlogLogger) Errorf(ctx context.Context, format string, args ...any) {
	s.Error(ctx, fmt.Sprintf(format, args...))
}
func (s *SlogLogger) With(args ...any) Logger { return &SlogLogger{l: s.l.With(args...)} }

// 全局默认日志器与 Hook。Hook 可能在服务已经开始处理请求后安装，
// 因此读写都走 atomic.Value，日志热路径与安装方不加锁也不竞态。
var (
	defaultLogger Logger = NewSlogLogger()
	hook          atomic.Value // Hook
)

// L 获取全局日志器。
func L() Logger { return defaultLogger }

// SetGlobal 替换全局日志器（如业务侧注入第三方实现）。
func SetGlobal(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// SetHook 设置全局日志 Hook；传 nil 关闭。
func SetHook(h Hook) { hook.Store(h) }

func fireHook(ctx context.Context, level int, msg string, args ...any) {
	if h, _ := hook.Load().(Hook); h != nil {
		h(ctx, level, msg, args...)
	}
}
