package holoware

import "context"

// Sampler draws the next completion from a model given the rollout built so
// far. Engines accept any Sampler; concrete adapters for specific model
// providers live under the samplers/ subpackage and are never imported by
// this package itself.
type Sampler interface {
	Sample(ctx context.Context, rollout *Rollout, stopSequences []string) (string, error)
}
