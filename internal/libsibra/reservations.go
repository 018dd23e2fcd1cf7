package libsibra

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ReservationsFile is the name of the per-AS reservation document.
const ReservationsFile = "reservations.json"

// ResvEntry holds the reservation parameters for one direction towards
// one peer AS. Fields the suite does not model are kept verbatim in
// extra so that rewriting the document never loses sibling keys.
type ResvEntry struct {
	DesiredSize BwCls
	MaxSize     BwCls
	MinSize     BwCls
	SplitCls    SplitCls

	extra map[string]json.RawMessage
}

func (e *ResvEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	e.extra = make(map[string]json.RawMessage)
	for key, raw := range fields {
		var dst any
		switch key {
		case "DesiredSize":
			dst = &e.DesiredSize
		case "MaxSize":
			dst = &e.MaxSize
		case "MinSize":
			dst = &e.MinSize
		case "SplitCls":
			dst = &e.SplitCls
		default:
			e.extra[key] = raw
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
	}
	return nil
}

func (e *ResvEntry) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.extra)+4)
	for key, raw := range e.extra {
		fields[key] = raw
	}
	for key, v := range map[string]any{
		"DesiredSize": e.DesiredSize,
		"MaxSize":     e.MaxSize,
		"MinSize":     e.MinSize,
		"SplitCls":    e.SplitCls,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// Reservations maps a directional label ("Up-1-ff00:0:110",
// "Down-1-ff00:0:110") to the reservation entry for that path.
type Reservations map[string]*ResvEntry

// LoadReservations reads and decodes a reservation document.
func LoadReservations(path string) (Reservations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading reservations")
	}
	var resvs Reservations
	if err := json.Unmarshal(data, &resvs); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return resvs, nil
}

// Encode serializes the document the way the topology generator writes
// it: sorted keys, four-space indent. Repeated encodes of the same
// logical content are byte-identical.
func (r Reservations) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding reservations")
	}
	return data, nil
}
