package sqlite

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteingest"
)

// hashContent returns the big-endian hex form of the xxHash of content.
func hashContent(content string) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(content))
	return hex.EncodeToString(b[:])
}

func parseTimestamp(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// appendFilter narrows a "WHERE 1=1" query to the filter's host.
func appendFilter(query *strings.Builder, args *[]any, filter siteingest.PageFilter) {
	if filter.Host != nil {
		query.WriteString(" AND host = ?")
		*args = append(*args, strings.ToLower(*filter.Host))
	}
}

// appendPagination adds LIMIT and OFFSET clauses. SQLite only accepts OFFSET
// after LIMIT, so an offset alone is paired with LIMIT -1 (no limit).
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	switch {
	case limit > 0:
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	case offset > 0:
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}
