package libaccept

import "github.com/pkg/errors"

// Bounds is an inclusive tolerance band. Bands are scenario data, not
// constants: the theoretical bit rate is a guide, and real runs jitter
// around it.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Check verifies that v lies within the band and names the violated
// bound otherwise.
func (b Bounds) Check(label string, v float64) error {
	if v < b.Min {
		return errors.Errorf("invalid %s %v < %v", label, v, b.Min)
	}
	if v > b.Max {
		return errors.Errorf("invalid %s %v > %v", label, v, b.Max)
	}
	return nil
}
