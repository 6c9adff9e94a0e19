package errow

// DefaultMaxDepth bounds the cause-chain walk. Chains are expected to be
// a few layers deep; the cap guards against malformed or cyclic causes.
const DefaultMaxDepth = 16

// Chain collects the context-carrying layers of err, outermost first.
// It returns nil when err itself does not carry capture context. The walk
// follows cause links only while each cause is itself context-carrying;
// a plain error cause ends the chain even if it wraps further errors.
func Chain(err error, max int) []*ErrorW {
	current, ok := err.(*ErrorW)
	if !ok || current == nil {
		return nil
	}
	if max <= 0 {
		max = DefaultMaxDepth
	}

	var chain []*ErrorW
	for current != nil && len(chain) < max {
		chain = append(chain, current)
		next, ok := current.cause.(*ErrorW)
		if !ok {
			break
		}
		current = next
	}
	return chain
}
