package ops

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"jsedit/internal/config"
	"jsedit/internal/digest"
)

// collectCache memoizes Collect results by (path, content hash) so
// recipe step loops that re-read an unchanged file skip the re-parse.
// The singleflight group collapses concurrent builds of the same key;
// the map keeps the built Context for sequential reuse. A writeback
// changes the content hash and therefore naturally invalidates.
var (
	collectGroup singleflight.Group
	collectMu    sync.RWMutex
	collectCache = make(map[string]*Context)
)

func collectKey(path, text string) string {
	return path + "\x00" + digest.CreateDigest(digest.Config{Encoding: "hex"}, text)
}

// CollectCached is Collect with memoization, used by the recipe engine
// and CLI dispatch where the same file may be parsed repeatedly.
func CollectCached(path, text string, cfg *config.Config) (*Context, error) {
	key := collectKey(path, text)

	collectMu.RLock()
	cached, ok := collectCache[key]
	collectMu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := collectGroup.Do(key, func() (interface{}, error) {
		ctx, err := Collect(path, text, cfg)
		if err != nil {
			return nil, err
		}
		collectMu.Lock()
		collectCache[key] = ctx
		collectMu.Unlock()
		return ctx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}

// CollectFile reads path from disk and collects it. Each call re-reads
// the file, so recipe steps observe prior steps' writebacks.
func CollectFile(path string, cfg *config.Config) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	return CollectCached(path, string(data), cfg)
}
