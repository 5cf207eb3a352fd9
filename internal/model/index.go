package model

import (
	"cmp"
	"slices"
	"time"
)

// indexNameLayout matches Common Crawl index names such as
// "November 2020 Index".
const indexNameLayout = "January 2006 Index"

// Index describes one Common Crawl monthly index as listed by collinfo.json.
type Index struct {
	// ID is the collection identifier, e.g. "CC-MAIN-2020-50".
	ID string `json:"id"`
	// Name is the human-readable name, e.g. "November 2020 Index".
	Name string `json:"name"`
	// Timegate is the memento timegate endpoint of the collection.
	Timegate string `json:"timegate"`
	// CDXAPI is the query endpoint of the collection's CDX index.
	CDXAPI string `json:"cdx-api"`
}

// Date returns the month the index covers, parsed from its name. Indexes
// whose names do not follow the "<Month> <Year> Index" pattern return the
// zero time.
func (i Index) Date() time.Time {
	t, err := time.Parse(indexNameLayout, i.Name)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortIndexesNewestFirst orders indexes by the month in their names, newest
// first. Indexes with unparsable names sort after all dated ones, ordered by
// name so the result stays deterministic.
func SortIndexesNewestFirst(indexes []Index) {
	slices.SortStableFunc(indexes, func(a, b Index) int {
		da, db := a.Date(), b.Date()
		switch {
		case !da.IsZero() && !db.IsZero():
			return db.Compare(da)
		case da.IsZero() && db.IsZero():
			return cmp.Compare(a.Name, b.Name)
		case da.IsZero():
			return 1
		default:
			return -1
		}
	})
}
