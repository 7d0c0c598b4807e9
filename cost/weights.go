package cost

// Weights assign a relative price to each Cost dimension. Callers that meter
// or budget operations configure these once and apply them to reported costs;
// the store itself never interprets them.
type Weights struct {
	Seek      uint64 `yaml:"seek"`
	Hash      uint64 `yaml:"hash"`
	ByteRead  uint64 `yaml:"byteRead"`
	ByteWrite uint64 `yaml:"byteWrite"`
}

// DefaultWeights prices a seek as the dominant unit, hashing as a quarter of
// that, and byte traffic linearly with writes twice as expensive as reads.
func DefaultWeights() Weights {
	return Weights{
		Seek:      16,
		Hash:      4,
		ByteRead:  1,
		ByteWrite: 2,
	}
}

// WithDefaults returns w with every unset dimension replaced by its default.
func (w Weights) WithDefaults() Weights {
	d := DefaultWeights()
	if w.Seek == 0 {
		w.Seek = d.Seek
	}
	if w.Hash == 0 {
		w.Hash = d.Hash
	}
	if w.ByteRead == 0 {
		w.ByteRead = d.ByteRead
	}
	if w.ByteWrite == 0 {
		w.ByteWrite = d.ByteWrite
	}
	return w
}
