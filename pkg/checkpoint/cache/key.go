package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// keyString renders a key as the string that is hashed or stored.
func keyString[K comparable](key K) string {
	switch k := any(key).(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%v", key)
	}
}

func shard[K comparable](key K) uint32 {
	return uint32(xxhash.Sum64String(keyString(key)))
}
