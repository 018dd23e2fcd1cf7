package libsibra

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// IA identifies a network entity by ISD-AS, e.g. "1-ff00:0:110".
type IA string

// Validate checks that the IA has the ISD-AS shape. The suite only
// splits the identifier and derives file paths from it, so this is a
// shape check, not a full address parse.
func (ia IA) Validate() error {
	isd, as, found := strings.Cut(string(ia), "-")
	if !found || isd == "" || as == "" {
		return errors.Errorf("invalid ISD-AS identifier %q", ia)
	}
	return nil
}

// ISD returns the isolation-domain part of the identifier.
func (ia IA) ISD() string {
	isd, _, _ := strings.Cut(string(ia), "-")
	return isd
}

// AS returns the autonomous-system part of the identifier.
func (ia IA) AS() string {
	_, as, _ := strings.Cut(string(ia), "-")
	return as
}

// FileFmt returns the AS number in the file-system safe form used by
// the topology generator, with ':' replaced by '_'.
func (ia IA) FileFmt() string {
	return ia.ISD() + "-" + strings.ReplaceAll(ia.AS(), ":", "_")
}

// SibraDir returns the generated sibra configuration directory for the
// first sibra service instance of this AS, relative to the SCION root:
// gen/ISD<isd>/AS<as>/sb<isd>-<as>-1/sibra.
func (ia IA) SibraDir(root string) string {
	fileAS := strings.ReplaceAll(ia.AS(), ":", "_")
	instance := "sb" + ia.FileFmt() + "-1"
	return filepath.Join(root, "gen", "ISD"+ia.ISD(), "AS"+fileAS, instance, "sibra")
}
