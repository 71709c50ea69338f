package dedupe

// defaultMaxSize bounds the tracked id set; one season of weekly games
// fits with lots of headroom.
const defaultMaxSize = 10_000

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many ids are kept. Zero or negative keeps the set
// unbounded.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = size
	}
}
