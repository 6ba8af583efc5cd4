package bump

// Utilization returns the ratio of used bytes to capacity (0.0 to 1.0).
func (a *Arena) Utilization() float64 {
	return float64(a.Used()) / float64(a.capacity)
}

// Allocs returns the number of successful allocations.
func (a *Arena) Allocs() uint64 {
	return a.allocs.Load()
}

// Failures returns the number of requests the arena refused.
func (a *Arena) Failures() uint64 {
	return a.failures.Load()
}

// Metrics returns a snapshot of arena statistics. Fields are read one at a
// time, so under concurrent allocation they may not be mutually consistent.
func (a *Arena) Metrics() Metrics {
	used := a.Used()
	return Metrics{
		Used:        used,
		Capacity:    a.Capacity(),
		Remaining:   a.Capacity() - used,
		Allocs:      a.Allocs(),
		Failures:    a.Failures(),
		Utilization: float64(used) / float64(a.capacity),
	}
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	Used        int     // Bytes past the cursor start, padding included
	Capacity    int     // Total capacity in bytes
	Remaining   int     // Bytes not yet handed out
	Allocs      uint64  // Successful allocations
	Failures    uint64  // Refused allocations
	Utilization float64 // Ratio of used to total capacity (0.0-1.0)
}
