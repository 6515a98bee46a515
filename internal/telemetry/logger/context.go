package logger

import "context"

type contextKey string

const (
	loggerKey   contextKey = "sod.logger"
	instanceKey contextKey = "sod.instance"
	peerKey     contextKey = "sod.peer"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context's logger, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithInstanceID records the runtime instance serving a connection.
func WithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, instanceKey, id)
}

// InstanceIDFromContext returns the recorded instance identifier.
func InstanceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(instanceKey).(string); ok {
		return id
	}
	return ""
}

// WithPeer records a description of the connected peer.
func WithPeer(ctx context.Context, peer string) context.Context {
	return context.WithValue(ctx, peerKey, peer)
}

// PeerFromContext returns the recorded peer description.
func PeerFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(peerKey).(string); ok {
		return p
	}
	return ""
}

// L returns the context's logger enriched with the instance and peer
// recorded in ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := InstanceIDFromContext(ctx); id != "" {
		l = l.With("instance", id)
	}
	if peer := PeerFromContext(ctx); peer != "" {
		l = l.With("peer", peer)
	}
	return l.WithContext(ctx)
}
