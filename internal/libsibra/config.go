package libsibra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

// ASConfig is the mutable sibra configuration of one AS: the decoded
// reservation and matrix documents, plus the raw bytes found on disk
// when the config was opened. The raw bytes are what Backward writes,
// so restoration is byte-identical no matter how the generator
// formatted the files.
type ASConfig struct {
	IA    IA
	Dir   string
	Resvs Reservations
	Mat   Matrix

	origResvs []byte
	origMat   []byte
}

// ConfigSet owns the sibra configuration of a set of ASes for the
// duration of one test case. It is loaded once at construction, written
// forward with the case's mutations, and written backward on teardown.
// A ConfigSet must never be shared between concurrently running cases:
// it edits shared on-disk state.
type ConfigSet struct {
	ASes []*ASConfig
	log  log15.Logger
}

// NewConfigSet loads the reservation and matrix documents of the given
// ASes from the generated configuration under root. An empty AS list is
// a programmer error and fails before any file is touched.
func NewConfigSet(root string, ias []IA) (*ConfigSet, error) {
	if len(ias) == 0 {
		return nil, errors.New("config set needs at least one AS")
	}
	for _, ia := range ias {
		if err := ia.Validate(); err != nil {
			return nil, err
		}
	}
	cs := &ConfigSet{log: log15.New("component", "config")}
	for _, ia := range ias {
		ac, err := loadASConfig(root, ia)
		if err != nil {
			return nil, errors.Wrapf(err, "loading config of %s", ia)
		}
		cs.ASes = append(cs.ASes, ac)
	}
	return cs, nil
}

func loadASConfig(root string, ia IA) (*ASConfig, error) {
	dir := ia.SibraDir(root)
	origResvs, err := os.ReadFile(filepath.Join(dir, ReservationsFile))
	if err != nil {
		return nil, err
	}
	resvs, err := LoadReservations(filepath.Join(dir, ReservationsFile))
	if err != nil {
		return nil, err
	}
	origMat, err := os.ReadFile(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, err
	}
	mat, err := LoadMatrix(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, err
	}
	return &ASConfig{
		IA:        ia,
		Dir:       dir,
		Resvs:     resvs,
		Mat:       mat,
		origResvs: origResvs,
		origMat:   origMat,
	}, nil
}

// Entry returns the reservation entry with the given directional key in
// the config of the given AS, or an error if either is unknown.
func (cs *ConfigSet) Entry(ia IA, key string) (*ResvEntry, error) {
	for _, ac := range cs.ASes {
		if ac.IA != ia {
			continue
		}
		entry, ok := ac.Resvs[key]
		if !ok {
			return nil, errors.Errorf("no reservation %q in %s", key, ia)
		}
		return entry, nil
	}
	return nil, errors.Errorf("AS %s not part of config set", ia)
}

// Forward writes the (possibly mutated) in-memory documents back to
// their on-disk locations.
func (cs *ConfigSet) Forward() error {
	for _, ac := range cs.ASes {
		cs.log.Debug("writing mutated config", "ia", ac.IA, "dir", ac.Dir)
		resvs, err := ac.Resvs.Encode()
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(ac.Dir, ReservationsFile), resvs); err != nil {
			return err
		}
		mat, err := ac.Mat.Encode()
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(ac.Dir, MatrixFile), mat); err != nil {
			return err
		}
	}
	return nil
}

// Backward restores every managed file to the exact bytes it contained
// when the set was opened. It is idempotent, and it must run on every
// exit path of a test case: a failure here leaves shared state corrupt
// and aborts the whole run.
func (cs *ConfigSet) Backward() error {
	for _, ac := range cs.ASes {
		cs.log.Debug("restoring original config", "ia", ac.IA, "dir", ac.Dir)
		if err := writeFile(filepath.Join(ac.Dir, ReservationsFile), ac.origResvs); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(ac.Dir, MatrixFile), ac.origMat); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
