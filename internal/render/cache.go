package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxCachedReplies bounds the rendered-reply cache
const maxCachedReplies = 256

// cache holds glamour renderers per option set and the output of finished
// replies. A TermRenderer is not safe for concurrent use, so renderers are
// checked out of a sync.Pool instead of shared.
type cache struct {
	mu        sync.RWMutex
	renderers map[string]*sync.Pool

	repliesMu sync.Mutex
	replies   map[replyKey]string
	order     []replyKey
}

type replyKey struct {
	opts    string
	content string
}

var globalCache = newCache()

func newCache() *cache {
	return &cache{
		renderers: make(map[string]*sync.Pool),
		replies:   make(map[replyKey]string),
	}
}

func cacheKey(opts Options) string {
	return fmt.Sprintf("%s:%d:%t:%t:%t:%t",
		opts.Style,
		opts.Width,
		opts.EnableEmoji,
		opts.PreserveNewLines,
		opts.TableWrap,
		opts.InlineTableLinks,
	)
}

func (c *cache) pool(opts Options) *sync.Pool {
	key := cacheKey(opts)

	c.mu.RLock()
	p, ok := c.renderers[key]
	c.mu.RUnlock()
	if ok {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.renderers[key]; ok {
		return p
	}
	p = &sync.Pool{
		New: func() any {
			r, err := newRenderer(opts)
			if err != nil {
				return nil
			}
			return r
		},
	}
	c.renderers[key] = p
	return p
}

// acquire checks out a renderer for opts. When the pool cannot build one the
// construction is repeated here so the caller sees the error.
func (c *cache) acquire(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := c.pool(opts).Get().(*glamour.TermRenderer); ok && r != nil {
		return r, nil
	}
	return newRenderer(opts)
}

func (c *cache) release(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		c.pool(opts).Put(r)
	}
}

func (c *cache) reply(opts Options, content string) (string, bool) {
	c.repliesMu.Lock()
	defer c.repliesMu.Unlock()
	out, ok := c.replies[replyKey{cacheKey(opts), content}]
	return out, ok
}

// storeReply remembers rendered output, evicting the oldest entry once the
// cache is full
func (c *cache) storeReply(opts Options, content, out string) {
	key := replyKey{cacheKey(opts), content}

	c.repliesMu.Lock()
	defer c.repliesMu.Unlock()
	if _, ok := c.replies[key]; ok {
		return
	}
	if len(c.order) >= maxCachedReplies {
		delete(c.replies, c.order[0])
		c.order = c.order[1:]
	}
	c.replies[key] = out
	c.order = append(c.order, key)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		styleOption(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops every pooled renderer and cached reply.
func ClearCache() {
	fresh := newCache()
	globalCache.mu.Lock()
	globalCache.renderers = fresh.renderers
	globalCache.mu.Unlock()

	globalCache.repliesMu.Lock()
	globalCache.replies = fresh.replies
	globalCache.order = nil
	globalCache.repliesMu.Unlock()
}

// CacheSize returns the number of distinct renderer configurations.
func CacheSize() int {
	globalCache.mu.RLock()
	defer globalCache.mu.RUnlock()
	return len(globalCache.renderers)
}
