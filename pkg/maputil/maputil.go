package maputil

// GetOrDefault returns the value stored under key, or the zero value of V when absent.
func GetOrDefault[M ~map[K]V, K comparable, V any](m M, key K) V {
	return m[key]
}

// GetOrElse returns the value stored under key, or def when absent.
func GetOrElse[M ~map[K]V, K comparable, V any](m M, key K, def V) V {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
