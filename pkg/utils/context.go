package utils

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActorID returns the id of the authenticated caller, or NilObjectID when the
// context carries no claims.
func ActorID(ctx context.Context) primitive.ObjectID {
	claims, ok := ctx.Value(UserClaimsKey).(*UserClaims)
	if !ok {
		return primitive.NilObjectID
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

// WithClaims returns a child context carrying claims, as Protect does for requests.
func WithClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}
