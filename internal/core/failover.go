package core

import (
	"context"
	"log"
)

// failover tries each generator in pool order until one call succeeds.
// When the pool is exhausted it returns the fallback value and false: giving
// up and defaulting is an explicit decision here, not a loop fallthrough.
func failover[T any](ctx context.Context, pool []Generator, fallback T, call func(context.Context, Generator) (T, error)) (T, bool) {
	for i, g := range pool {
		result, err := call(ctx, g)
		if err != nil {
			log.Printf("model client %d/%d failed: %v", i+1, len(pool), err)
			continue
		}
		return result, true
	}
	return fallback, false
}
