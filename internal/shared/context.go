package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting user's id in context.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the acting user's id. Zero means unattributed;
// callers that require attribution must reject the request upstream.
func ActorFromContext(ctx context.Context) int64 {
	actorID, _ := ctx.Value(actorContextKey{}).(int64)
	return actorID
}
