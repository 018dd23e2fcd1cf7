package libaccept

import (
	"time"

	"github.com/pkg/errors"

	"github.com/juagargi/sibratest/internal/libbwtest"
	"github.com/juagargi/sibratest/internal/libsibra"
)

// ResvOverride is one reservation edit: the directional entry to touch
// and the class values to set.
type ResvOverride struct {
	// AS owns the reservation file; empty means every AS of the
	// scenario.
	AS  libsibra.IA `yaml:"as"`
	Key string      `yaml:"key"`

	Desired libsibra.BwCls    `yaml:"desired"`
	Max     libsibra.BwCls    `yaml:"max"`
	Min     libsibra.BwCls    `yaml:"min"`
	Split   libsibra.SplitCls `yaml:"split"`
}

// Scenario is a data-driven acceptance case: reservation overrides, a
// matrix fill, client parameters and tolerance bands. It implements
// Case, both for the built-in scenarios and for suite files.
type Scenario struct {
	CaseName string        `yaml:"name"`
	Entities []libsibra.IA `yaml:"ases"`

	Server libsibra.IA `yaml:"server"`
	Client libsibra.IA `yaml:"client"`

	Overrides []ResvOverride `yaml:"reservations"`
	// MatrixFill overwrites every matrix cell with this ceiling when
	// non-zero.
	MatrixFill int64 `yaml:"matrix_fill"`

	DurationSec int            `yaml:"duration"`
	BwCls       libsibra.BwCls `yaml:"bw_class"`
	Bandwidth   int64          `yaml:"bandwidth"`
	// PacketSize overrides the harness payload size when non-zero.
	PacketSize int `yaml:"packet_size"`

	ExpectFailure bool `yaml:"expect_failure"`

	Speed Bounds `yaml:"speed"`
	Drops Bounds `yaml:"drops"`
}

// Validate checks the scenario for the mistakes a suite file can carry.
// When the speed band's upper bound is left at zero it defaults to the
// theoretical rate of the scenario's class and split.
func (s *Scenario) Validate() error {
	if s.CaseName == "" {
		return errors.New("scenario without a name")
	}
	if len(s.Entities) == 0 {
		return errors.Errorf("scenario %s: no ASes to configure", s.CaseName)
	}
	for _, ia := range append([]libsibra.IA{s.Server, s.Client}, s.Entities...) {
		if err := ia.Validate(); err != nil {
			return errors.Wrapf(err, "scenario %s", s.CaseName)
		}
	}
	if s.DurationSec <= 0 {
		return errors.Errorf("scenario %s: non-positive duration", s.CaseName)
	}
	if s.Speed.Max == 0 && !s.ExpectFailure {
		s.Speed.Max = float64(libsibra.ExpectedBps(s.BwCls, s.splitCls()))
	}
	return nil
}

// splitCls returns the split class the scenario sets, falling back to
// zero when no override carries one.
func (s *Scenario) splitCls() libsibra.SplitCls {
	for _, ov := range s.Overrides {
		if ov.Split != 0 {
			return ov.Split
		}
	}
	return 0
}

func (s *Scenario) Name() string { return s.CaseName }

func (s *Scenario) ASes() []libsibra.IA { return s.Entities }

// Configure applies the overrides and the matrix fill to the loaded
// documents.
func (s *Scenario) Configure(cfg *libsibra.ConfigSet) error {
	for _, ov := range s.Overrides {
		targets := s.Entities
		if ov.AS != "" {
			targets = []libsibra.IA{ov.AS}
		}
		for _, ia := range targets {
			entry, err := cfg.Entry(ia, ov.Key)
			if err != nil {
				return err
			}
			entry.DesiredSize = ov.Desired
			entry.MaxSize = ov.Max
			entry.MinSize = ov.Min
			entry.SplitCls = ov.Split
		}
	}
	if s.MatrixFill != 0 {
		for _, ac := range cfg.ASes {
			ac.Mat.Fill(s.MatrixFill)
		}
	}
	return nil
}

func (s *Scenario) Params() libbwtest.ClientParams {
	return libbwtest.ClientParams{
		Server:        s.Server,
		Client:        s.Client,
		Duration:      time.Duration(s.DurationSec) * time.Second,
		BwCls:         s.BwCls,
		Bandwidth:     s.Bandwidth,
		PacketSize:    s.PacketSize,
		ExpectFailure: s.ExpectFailure,
	}
}

// Assert checks the measured speed and drop rate against the scenario's
// bands. Both must hold.
func (s *Scenario) Assert(res libbwtest.Result) error {
	if s.ExpectFailure {
		// The harness turns an unexpected client success into a hard
		// error, so only the sentinel result can arrive here.
		return nil
	}
	var errSpeed, errDrops error
	if errSpeed = s.Speed.Check("speed", res.Speed); errSpeed != nil {
		if errDrops = s.Drops.Check("drops", res.Drops); errDrops != nil {
			return errors.Errorf("%v; %v", errSpeed, errDrops)
		}
		return errSpeed
	}
	return s.Drops.Check("drops", res.Drops)
}
