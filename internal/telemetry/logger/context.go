package logger

import "context"

type contextKey string

const (
	loggerKey contextKey = "snapmesh.logger"
	peerKey   contextKey = "snapmesh.peer"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithPeer records the remote address of a broadcast connection.
func WithPeer(ctx context.Context, peer string) context.Context {
	return context.WithValue(ctx, peerKey, peer)
}

// PeerFromContext extracts the broadcast peer address from context.
func PeerFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(peerKey).(string); ok {
		return p
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the peer address from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if peer := PeerFromContext(ctx); peer != "" {
		l = l.With("peer", peer)
	}
	return l
}
