package transform

import (
	"strings"

	"github.com/IshaanNene/PlayaETL/internal/storage"
	"github.com/IshaanNene/PlayaETL/internal/types"
)

// HandleDuplicates partitions rows by exact equality of every field.
//
// duplicates holds every row that has at least one identical twin, first
// occurrences included, in input order. unique keeps the first occurrence of
// each distinct row, in input order.
func HandleDuplicates(rows []types.TransformedRecord) (duplicates, unique []types.TransformedRecord) {
	keys := make([]string, len(rows))
	counts := make(map[string]int, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r)
		counts[keys[i]]++
	}

	seen := make(map[string]bool, len(counts))
	for i, r := range rows {
		k := keys[i]
		if counts[k] > 1 {
			duplicates = append(duplicates, r)
		}
		if !seen[k] {
			seen[k] = true
			unique = append(unique, r)
		}
	}
	return duplicates, unique
}

// rowKey encodes a record the same way it is persisted, so two rows are equal
// exactly when their CSV lines are. The unit separator keeps fields apart.
func rowKey(r types.TransformedRecord) string {
	return strings.Join(storage.EncodeTransformedRow(r), "\x1f")
}
