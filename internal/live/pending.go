package live

import (
	"sort"
	"strings"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

// SubscribePending watches a collection for records whose status field equals
// "pending" regardless of case. The backend has no case-insensitive filter,
// so the subscription is unfiltered and the match plus a creation-time
// descending sort happen in process on every emission.
func (s *Subscriber) SubscribePending(collection, statusField, createdField string, fn Callback) func() {
	return s.Subscribe(collection, Options{}, func(records []docstore.Record, err error) {
		if err != nil {
			fn(records, err)
			return
		}
		fn(FilterPending(records, statusField, createdField), nil)
	})
}

// FilterPending keeps case-insensitive "pending" records sorted by creation
// time descending, with records missing a creation time at the end.
func FilterPending(records []docstore.Record, statusField, createdField string) []docstore.Record {
	pending := make([]docstore.Record, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(r.String(statusField), "pending") {
			pending = append(pending, r)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ti, iok := pending[i].Time(createdField)
		tj, jok := pending[j].Time(createdField)
		if iok != jok {
			return iok
		}
		return ti.After(tj)
	})

	return pending
}
