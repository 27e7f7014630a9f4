package exporting

import "github.com/c2h5oh/datasize"

// SizeGuard counts bytes appended to the data file and refuses writes that
// would reach the cap. A zero limit disables the check.
type SizeGuard struct {
	limit   datasize.ByteSize
	written uint64
}

// NewSizeGuard creates a guard for the given cap.
func NewSizeGuard(limit datasize.ByteSize) *SizeGuard {
	return &SizeGuard{limit: limit}
}

// Allow reports whether n more bytes fit below the cap.
func (g *SizeGuard) Allow(n int) bool {
	if g.limit == 0 {
		return true
	}
	return g.written+uint64(n) < g.limit.Bytes()
}

// Add records n written bytes.
func (g *SizeGuard) Add(n int) {
	g.written += uint64(n)
}

// Written returns the number of bytes recorded so far.
func (g *SizeGuard) Written() uint64 {
	return g.written
}

// Limit returns the configured cap.
func (g *SizeGuard) Limit() datasize.ByteSize {
	return g.limit
}
