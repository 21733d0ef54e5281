package dedupe

// Option configures a guard.
type Option func(*guard)

// WithCapacity presizes the guard for n ids.
func WithCapacity(n int) Option {
	return func(g *guard) {
		if n > 0 {
			g.capacity = n
		}
	}
}
