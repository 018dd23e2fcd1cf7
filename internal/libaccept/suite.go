package libaccept

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// SuiteFile is an on-disk suite definition: an ordered list of
// scenarios with their tolerance bands. Keeping the bands in data lets
// operators widen a flaky band without touching code.
type SuiteFile struct {
	Cases []*Scenario `yaml:"cases"`
}

// LoadSuite reads and validates a suite definition.
func LoadSuite(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading suite file")
	}
	var suite SuiteFile
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if len(suite.Cases) == 0 {
		return nil, errors.Errorf("suite %s defines no cases", path)
	}
	cases := make([]Case, 0, len(suite.Cases))
	for _, sc := range suite.Cases {
		if err := sc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "suite %s", path)
		}
		cases = append(cases, sc)
	}
	return cases, nil
}
