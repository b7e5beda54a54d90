package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with appropriate configuration
func NewLogger(development bool) (*zap.Logger, error) {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	return config.Build()
}

// RequestFields returns the fields every pipeline log line for a request carries.
func RequestFields(key, traceID string) []zap.Field {
	return []zap.Field{
		zap.String("key", key),
		zap.String("trace_id", traceID),
	}
}
