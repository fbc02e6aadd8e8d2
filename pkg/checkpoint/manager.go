package checkpoint

// Manager is an interface that dumps checkpoint.
type Manager[K comparable, V any] interface {

	// ForEach calls fn for every observed offset until fn returns false.
	ForEach(fn func(key K, value V) bool)
}
