// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithChat returns a logger with the delivery chat ID attached.
func (l *Logger) WithChat(chatID int64) *Logger {
	return &Logger{
		Logger: l.With(slog.Int64("chat_id", chatID)),
	}
}

// WithUser returns a logger with the telegram user ID attached.
func (l *Logger) WithUser(userID int64) *Logger {
	return &Logger{
		Logger: l.With(slog.Int64("user_id", userID)),
	}
}

// WithOrder returns a logger with the order ID attached.
func (l *Logger) WithOrder(orderID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("order_id", orderID)),
	}
}

// TransportError logs a failed outbound telegram call.
func (l *Logger) TransportError(method string, chatID int64, err error) {
	l.Error("transport_error",
		slog.String("method", method),
		slog.Int64("chat_id", chatID),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// AdminDecision logs an admin approve/reject action against an order.
func (l *Logger) AdminDecision(decision, orderID string, viaReply bool) {
	l.Info("admin_decision",
		slog.String("decision", decision),
		slog.String("order_id", orderID),
		slog.Bool("via_reply", viaReply),
	)
}
