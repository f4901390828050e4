package track

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Domain prefixes for content digests.
// The version suffix allows the algorithm to change without ambiguity.
const (
	DomainSnapshot = "sigtrack/snapshot/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ItemObject converts an item into a canonical-JSON-ready map.
func ItemObject(item TrackedItem) map[string]any {
	return map[string]any{
		"key":        item.Key,
		"org_unit":   item.OrgUnit,
		"technician": item.Technician,
		"attributes": map[string]any{
			"display_name":  item.Attributes.DisplayName,
			"address":       item.Attributes.Address,
			"serial_number": item.Attributes.SerialNumber,
			"port":          item.Attributes.Port,
		},
	}
}

// SnapshotDigest computes the content digest of a day's item set.
// Items are sorted by key first, so input order does not matter.
func SnapshotDigest(items []TrackedItem) (string, error) {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b TrackedItem) int {
		return strings.Compare(a.Key, b.Key)
	})

	arr := make([]any, len(sorted))
	for i, item := range sorted {
		arr[i] = ItemObject(item)
	}

	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// KeySet returns the set of keys in items.
func KeySet(items []TrackedItem) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item.Key] = struct{}{}
	}
	return set
}
