package describe

import (
	"crypto/md5"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache remembers recent descriptions keyed by a hash of the uploaded JPEG
// bytes, so byte-identical frames (a static scene re-emitted after a restart,
// say) skip the round trip to the inference server.
type Cache struct {
	entries *lru.Cache[string, string]
}

// NewCache creates a description cache holding up to size entries
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 100
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached description for the given frame bytes, if any
func (c *Cache) Get(jpegData []byte) (string, bool) {
	return c.entries.Get(cacheKey(jpegData))
}

// Add stores a description for the given frame bytes
func (c *Cache) Add(jpegData []byte, description string) {
	c.entries.Add(cacheKey(jpegData), description)
}

// Len returns the number of cached descriptions
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
