package bundle

import (
	"iter"

	"failscope/internal/failure"
)

// Limit truncates a lazy failure sequence to the first count records in
// collector order; count == 0 means all. Applied before resolution so no
// work is spent on failures beyond the requested count.
func Limit(records iter.Seq[failure.Record], count int) iter.Seq[failure.Record] {
	if count <= 0 {
		return records
	}
	return func(yield func(failure.Record) bool) {
		taken := 0
		for rec := range records {
			if !yield(rec) {
				return
			}
			taken++
			if taken >= count {
				return
			}
		}
	}
}
