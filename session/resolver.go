package session

import (
	"context"
	"fmt"
	"regexp"
)

// IdentityService is the lookup contract the resolver needs from the
// boundary. *steam.Client satisfies it.
type IdentityService interface {
	ResolveVanity(ctx context.Context, vanity string) (string, error)
}

// canonicalIDPattern matches a SteamID64: exactly 17 ASCII digits.
var canonicalIDPattern = regexp.MustCompile(`^[0-9]{17}$`)

// IsCanonicalID reports whether handle already has the canonical account id
// shape and needs no resolution lookup.
func IsCanonicalID(handle string) bool {
	return canonicalIDPattern.MatchString(handle)
}

// Resolver maps a human-entered handle to a canonical account id.
// Already-canonical handles are returned unchanged without a network call;
// vanity names get a single lookup, no retry. Resolution failures surface
// immediately.
type Resolver struct {
	service IdentityService
}

// NewResolver creates a resolver backed by the given lookup service.
func NewResolver(service IdentityService) *Resolver {
	return &Resolver{service: service}
}

// Resolve returns the canonical account id for handle.
// Failures wrap ErrIdentityNotFound and keep the upstream message in the
// chain for display.
func (r *Resolver) Resolve(ctx context.Context, handle string) (string, error) {
	if IsCanonicalID(handle) {
		return handle, nil
	}

	id, err := r.service.ResolveVanity(ctx, handle)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrIdentityNotFound, err)
	}
	return id, nil
}
