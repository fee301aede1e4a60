// Package security provides the audit event sink used to track
// authentication attempts, API usage, and rate limiting for incident
// response. Events are structured JSON lines; details are sanitized before
// they are written so credential material never reaches the log.
package security

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType classifies audit events.
type EventType string

const (
	EventAuthSuccess           EventType = "auth_success"
	EventAuthFailure           EventType = "auth_failure"
	EventAPICall               EventType = "api_call"
	EventRateLimit             EventType = "rate_limit"
	EventInputValidationFailed EventType = "input_validation_failed"
	EventError                 EventType = "error"
)

// AuditLogger receives fire-and-forget security events from the fetch
// pipeline. Implementations must be safe for concurrent use.
type AuditLogger interface {
	// LogAuthAttempt records an authentication attempt against a service.
	// reason is only included on failure and must not contain credentials.
	LogAuthAttempt(success bool, service, reason string)

	// LogAPICall records one remote API operation with its duration.
	LogAPICall(service, operation string, duration time.Duration, success bool)

	// LogRateLimit records that a concurrency limit was applied.
	LogRateLimit(service string, concurrentLimit int)

	// LogInputValidationFailure records rejected user input. The value is
	// truncated before logging to prevent log injection.
	LogInputValidationFailure(inputType, value, reason string)

	// LogError records a security-relevant error with pre-sanitized details.
	LogError(errorType, message string, details map[string]any)
}

// Detail sanitization bounds.
const (
	maxDetailLength = 500
	maxInputLength  = 100
)

// sensitiveKeys marks detail keys whose values are redacted.
var sensitiveKeys = []string{"token", "api_key", "password", "secret", "credential", "auth"}

// Logger is the zap-backed AuditLogger. Events are emitted as one JSON
// object per line through the supplied logger.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates an audit logger writing through zl.
func NewLogger(zl *zap.Logger) *Logger {
	return &Logger{logger: zl.Named("security")}
}

// LogAuthAttempt implements AuditLogger.
func (l *Logger) LogAuthAttempt(success bool, service, reason string) {
	eventType := EventAuthSuccess
	level := zapcore.InfoLevel
	outcome := "succeeded"

	if !success {
		eventType = EventAuthFailure
		level = zapcore.WarnLevel
		outcome = "failed"
	}

	details := map[string]any{"service": service}
	if reason != "" {
		details["reason"] = reason
	}

	l.logEvent(eventType, service+" authentication "+outcome, details, level)
}

// LogAPICall implements AuditLogger.
func (l *Logger) LogAPICall(service, operation string, duration time.Duration, success bool) {
	l.logEvent(EventAPICall, service+" API call: "+operation, map[string]any{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
		"success":     success,
	}, zapcore.InfoLevel)
}

// LogRateLimit implements AuditLogger.
func (l *Logger) LogRateLimit(service string, concurrentLimit int) {
	l.logEvent(EventRateLimit, "Rate limiting applied to "+service, map[string]any{
		"service":          service,
		"concurrent_limit": concurrentLimit,
	}, zapcore.InfoLevel)
}

// LogInputValidationFailure implements AuditLogger.
func (l *Logger) LogInputValidationFailure(inputType, value, reason string) {
	if runes := []rune(value); len(runes) > maxInputLength {
		value = string(runes[:maxInputLength])
	}

	l.logEvent(EventInputValidationFailed, "Input validation failed for "+inputType, map[string]any{
		"input_type": inputType,
		"value":      value,
		"reason":     reason,
	}, zapcore.WarnLevel)
}

// LogError implements AuditLogger.
func (l *Logger) LogError(errorType, message string, details map[string]any) {
	merged := map[string]any{"error_type": errorType}
	for k, v := range details {
		merged[k] = v
	}

	l.logEvent(EventError, message, merged, zapcore.ErrorLevel)
}

func (l *Logger) logEvent(eventType EventType, message string, details map[string]any, level zapcore.Level) {
	fields := []zap.Field{
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(eventType)),
	}

	if len(details) > 0 {
		encoded, err := sonic.MarshalString(SanitizeDetails(details))
		if err == nil {
			fields = append(fields, zap.String("details", encoded))
		}
	}

	l.logger.Log(level, message, fields...)
}

// SanitizeDetails returns a copy of details safe for logging: values under
// sensitive keys are redacted and very long strings truncated.
func SanitizeDetails(details map[string]any) map[string]any {
	sanitized := make(map[string]any, len(details))

	for key, value := range details {
		if isSensitiveKey(key) {
			sanitized[key] = "[REDACTED]"
			continue
		}

		if s, ok := value.(string); ok {
			if runes := []rune(s); len(runes) > maxDetailLength {
				sanitized[key] = string(runes[:maxDetailLength]) + "...[truncated]"
				continue
			}
		}

		sanitized[key] = value
	}

	return sanitized
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}

	return false
}
