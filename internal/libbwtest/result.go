package libbwtest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Result is one measured client run. Speed is in bits per second and
// Drops in [0,1]. ExpectedFailure marks the sentinel result of a
// negative test whose client exited non-zero as it should.
type Result struct {
	Speed           float64
	Drops           float64
	ExpectedFailure bool
}

// resultRegexp matches the client's summary line, e.g.
// "Speed: 1.295 Mbps drop rate: 0.000000". Groups: speed, unit,
// drop percentage.
var resultRegexp = regexp.MustCompile(`^Speed: (\S+) (\S+) drop rate: (\d*\.\d+|\d+)$`)

// resultWindow is how many trailing output lines are searched for the
// summary. The client prints it at the very end, but log flushing can
// push a few lines after it.
const resultWindow = 4

var unitMultiplier = map[string]float64{
	"bps":  1,
	"Kbps": 1e3,
	"Mbps": 1e6,
	"Gbps": 1e9,
	"Tbps": 1e12,
}

// parseResult extracts the measurement from the client's combined
// output, scanning the trailing window in reverse so the most recent
// summary wins. The summary line is the only channel for the result;
// not finding one is fatal.
func parseResult(output string) (Result, error) {
	lines := strings.Split(output, "\n")
	for i, checked := len(lines) - 1, 0; i >= 0 && checked < resultWindow; i, checked = i-1, checked+1 {
		groups := resultRegexp.FindStringSubmatch(lines[i])
		if groups == nil {
			continue
		}
		speed, err := strconv.ParseFloat(groups[1], 64)
		if err != nil {
			return Result{}, errors.Wrapf(err, "bad speed in result line %q", lines[i])
		}
		mult, ok := unitMultiplier[groups[2]]
		if !ok {
			return Result{}, errors.Errorf("unknown unit %q in result line %q", groups[2], lines[i])
		}
		percent, err := strconv.ParseFloat(groups[3], 64)
		if err != nil {
			return Result{}, errors.Wrapf(err, "bad drop rate in result line %q", lines[i])
		}
		return Result{Speed: speed * mult, Drops: percent / 100}, nil
	}
	return Result{}, errors.Errorf("no result line in client output:\n%s", output)
}
