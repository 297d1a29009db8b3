package plants

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering of a plant list.
type SortKey string

const (
	SortByName         SortKey = "name"
	SortByLastWatered  SortKey = "lastWatered"
	SortByNextWaterDue SortKey = "nextWaterDue"
)

// SortKeys lists the supported orderings in display order.
var SortKeys = []SortKey{SortByName, SortByLastWatered, SortByNextWaterDue}

// ParseSortKey returns the SortKey named s. The empty string selects
// SortByName.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortByName, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("plants: unknown sort key %q", s)
}

// Sort returns a new slice holding ps ordered by key. The ordering is stable
// and ps is left unchanged.
//
// SortByName compares names with English collation, ignoring case.
// SortByLastWatered puts the most recently watered plant first and plants
// never watered last. SortByNextWaterDue puts plants without a due date (never
// watered, hence most urgent) first, followed by the soonest due.
func Sort(ps []Plant, key SortKey) []Plant {
	sorted := slices.Clone(ps)
	switch key {
	case SortByLastWatered:
		slices.SortStableFunc(sorted, func(a, b Plant) int {
			return lastWatered(b).Compare(lastWatered(a))
		})
	case SortByNextWaterDue:
		slices.SortStableFunc(sorted, func(a, b Plant) int {
			switch {
			case a.NextWaterDue == nil && b.NextWaterDue == nil:
				return 0
			case a.NextWaterDue == nil:
				return -1
			case b.NextWaterDue == nil:
				return 1
			}
			return a.NextWaterDue.Compare(*b.NextWaterDue)
		})
	default:
		// A Collator keeps internal buffers and must not be shared.
		c := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(sorted, func(a, b Plant) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
	return sorted
}

func lastWatered(p Plant) time.Time {
	if p.LastWaterEvent == nil {
		return time.Time{}
	}
	return p.LastWaterEvent.Timestamp
}

// Filter returns the plants whose name contains query, compared with Unicode
// case folding. An empty query keeps every plant.
func Filter(ps []Plant, query string) []Plant {
	query = strings.TrimSpace(query)
	if query == "" {
		return slices.Clone(ps)
	}
	fold := cases.Fold()
	needle := fold.String(query)
	filtered := make([]Plant, 0, len(ps))
	for _, p := range ps {
		if strings.Contains(fold.String(p.Name), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Arrange filters ps by query and orders the result by key.
func Arrange(ps []Plant, query string, key SortKey) []Plant {
	return Sort(Filter(ps, query), key)
}
