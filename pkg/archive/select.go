package archive

import "redditarchive/pkg/models"

// Known answers whether an identifier is already archived
type Known interface {
	Has(id string) bool
}

// Select returns the items whose identifiers are not known, in their
// original order. A listing can repeat an item while it shifts between
// pages, so only the first occurrence of an identifier is kept.
func Select(items []models.Item, known Known) []models.Item {
	var fresh []models.Item
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if known != nil && known.Has(item.ID) {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh
}
