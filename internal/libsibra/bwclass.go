// Package libsibra models the SIBRA bandwidth-class encoding and the
// per-AS reservation configuration that the acceptance suite mutates.
package libsibra

import "math"

// BwCls is a SIBRA bandwidth class. The class encodes an exponential
// bit-rate tier: class c reserves 16000*sqrt(2^(c-1)) bps.
type BwCls int

// Bps returns the bit rate encoded by the class. The formula is total
// over all integers; callers never need to validate the class first.
func (c BwCls) Bps() float64 {
	return 16000 * math.Sqrt(math.Pow(2, float64(c-1)))
}

// SplitCls is a SIBRA traffic-split class. It encodes the proportion of
// a reservation that is retained for control traffic: sqrt(2^(-s)).
type SplitCls int

// Prop returns the retained proportion encoded by the split class.
// Prop(0) == 1, and the proportion is non-increasing in s.
func (s SplitCls) Prop() float64 {
	return math.Sqrt(math.Pow(2, -float64(s)))
}

// ExpectedBps returns the data bit rate a client should observe for a
// reservation of class c with split class s. This is a reference bound
// for assertions, not an exact oracle: real measurements carry network
// jitter, so callers compare against a tolerance band around it.
func ExpectedBps(c BwCls, s SplitCls) int64 {
	return int64(math.Floor(c.Bps() * (1 - s.Prop())))
}
