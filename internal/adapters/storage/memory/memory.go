// Package memory provides in-memory repository implementations backed by
// mutex-guarded maps. Used in development and tests; the postgres package is
// the production counterpart.
package memory

const (
	defaultLimit = 20
	maxLimit     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
