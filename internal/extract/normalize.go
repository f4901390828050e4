package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sigtrack/internal/track"
)

// RawRecord is one row of an extract before normalization.
type RawRecord struct {
	Key          string `yaml:"key"`
	OrgUnit      string `yaml:"org_unit"`
	Technician   string `yaml:"technician"`
	DisplayName  string `yaml:"display_name"`
	Address      string `yaml:"address"`
	SerialNumber string `yaml:"serial_number"`
	Port         string `yaml:"port"`
}

// Normalizer maps a raw extract row to a canonical TrackedItem.
type Normalizer interface {
	Normalize(raw RawRecord) (track.TrackedItem, error)
}

// DefaultNormalizer applies Unicode NFC and whitespace cleanup to every
// field. When a Directory is set, a blank org unit is filled from the
// technician's directory entry.
type DefaultNormalizer struct {
	Directory *Directory
}

// Normalize implements Normalizer.
func (n DefaultNormalizer) Normalize(raw RawRecord) (track.TrackedItem, error) {
	item := track.TrackedItem{
		Key:        strings.TrimSpace(norm.NFC.String(raw.Key)),
		OrgUnit:    CanonicalName(raw.OrgUnit),
		Technician: CanonicalName(raw.Technician),
		Attributes: track.Attributes{
			DisplayName:  CanonicalName(raw.DisplayName),
			Address:      CanonicalName(raw.Address),
			SerialNumber: strings.TrimSpace(raw.SerialNumber),
			Port:         strings.TrimSpace(raw.Port),
		},
	}

	if item.OrgUnit == "" && item.Technician != "" && n.Directory != nil {
		unit, ok, err := n.Directory.Lookup(item.Technician)
		if err != nil {
			return track.TrackedItem{}, err
		}
		if ok {
			item.OrgUnit = unit
		}
	}
	return item, nil
}

// CanonicalName NFC-normalizes s and collapses runs of whitespace.
func CanonicalName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeAll runs every record through n, preserving order.
func NormalizeAll(n Normalizer, records []RawRecord) ([]track.TrackedItem, error) {
	items := make([]track.TrackedItem, 0, len(records))
	for _, raw := range records {
		item, err := n.Normalize(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
