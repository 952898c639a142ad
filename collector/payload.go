package collector

// Payload access helpers. Metric data maps hold loosely typed values: when a
// record is still in memory the producer's native Go types survive, but after
// a JSON round trip through a file or SQLite store every number comes back as
// float64. Strategies read payloads through these helpers so aggregation
// results do not depend on the storage backend.

// Number extracts a numeric payload value regardless of its concrete type.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Boolean extracts a boolean payload value.
func Boolean(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// Text extracts a string payload value.
func Text(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
