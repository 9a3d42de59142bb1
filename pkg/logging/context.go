package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey      = "trace_id"
	MessageIDKey    = "message_id"
	ServiceNameKey  = "service_name"
	LoggingMetaKey  = "logging_meta"
	mottakIDField   = "mottak_id"
	orgNrField      = "org_nr"
	msgIDField      = "msg_id"
	sykmeldingField = "sykmelding_id"
)

// LoggingMeta identifies a single sick-leave message in every log line emitted while it is processed.
type LoggingMeta struct {
	MottakID     string
	OrgNr        string
	MsgID        string
	SykmeldingID string
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey(TraceIDKey), traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, contextKey(MessageIDKey), messageID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, contextKey(ServiceNameKey), serviceName)
}

func WithLoggingMeta(ctx context.Context, meta LoggingMeta) context.Context {
	return context.WithValue(ctx, contextKey(LoggingMetaKey), meta)
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKey(TraceIDKey)).(string); ok {
		return traceID
	}
	return ""
}

func GetMessageID(ctx context.Context) string {
	if messageID, ok := ctx.Value(contextKey(MessageIDKey)).(string); ok {
		return messageID
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(contextKey(ServiceNameKey)).(string); ok {
		return serviceName
	}
	return ""
}

func GetLoggingMeta(ctx context.Context) (LoggingMeta, bool) {
	meta, ok := ctx.Value(contextKey(LoggingMetaKey)).(LoggingMeta)
	return meta, ok
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 14)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, TraceIDKey, traceID)
	}

	if messageID := GetMessageID(ctx); messageID != "" {
		fields = append(fields, MessageIDKey, messageID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, ServiceNameKey, serviceName)
	}

	if meta, ok := GetLoggingMeta(ctx); ok {
		fields = append(fields,
			mottakIDField, meta.MottakID,
			orgNrField, meta.OrgNr,
			msgIDField, meta.MsgID,
			sykmeldingField, meta.SykmeldingID,
		)
	}

	return fields
}
