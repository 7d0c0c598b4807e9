// Package cost implements deterministic accounting of storage and hashing
// effort. Every mutating or querying operation of the store threads a *Cost
// accumulator through the code paths it takes and reports the totals to the
// caller. Two identical operations on identical states always produce
// identical costs, independent of wall-clock time, backend latency or
// allocation behavior.
package cost

// Cost counts the primitive units of work performed by an operation:
// storage seeks, hash computations, and bytes moved in either direction.
// The zero value is ready to use. Accumulators are passed explicitly;
// the package keeps no global state.
type Cost struct {
	Seeks        uint64
	Hashes       uint64
	BytesRead    uint64
	BytesWritten uint64
}

// AddSeek records a single storage lookup or cursor placement.
func (c *Cost) AddSeek() {
	c.Seeks++
}

// AddSeeks records n storage lookups at once.
func (c *Cost) AddSeeks(n uint64) {
	c.Seeks += n
}

// AddHashes records n hash computations.
func (c *Cost) AddHashes(n uint64) {
	c.Hashes += n
}

// AddRead records n bytes loaded from storage.
func (c *Cost) AddRead(n uint64) {
	c.BytesRead += n
}

// AddWritten records n bytes staged for storage.
func (c *Cost) AddWritten(n uint64) {
	c.BytesWritten += n
}

// Add merges another accumulator into c.
func (c *Cost) Add(o Cost) {
	c.Seeks += o.Seeks
	c.Hashes += o.Hashes
	c.BytesRead += o.BytesRead
	c.BytesWritten += o.BytesWritten
}

// IsZero reports whether no work has been recorded.
func (c Cost) IsZero() bool {
	return c == Cost{}
}

// Total prices the accumulated work under the given weights.
func (c Cost) Total(w Weights) uint64 {
	return c.Seeks*w.Seek +
		c.Hashes*w.Hash +
		c.BytesRead*w.ByteRead +
		c.BytesWritten*w.ByteWrite
}
