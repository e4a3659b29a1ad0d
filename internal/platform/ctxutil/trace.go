package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates one inbound call with the formation record it touches.
type TraceData struct {
	TraceID   string
	RequestID string
	RecordID  string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields flattens the trace data into logger key/value pairs, skipping blanks.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	out := make([]interface{}, 0, 6)
	for _, kv := range [][2]string{{"trace_id", td.TraceID}, {"request_id", td.RequestID}, {"record_id", td.RecordID}} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}
