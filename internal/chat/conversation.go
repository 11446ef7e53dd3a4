// Package chat implements the two-party conversation model: deterministic
// conversation identity, the per-conversation message stream, and read-state
// tracking.
package chat

import (
	"sort"
	"strings"
)

// ConversationID derives the stable identifier for the unordered pair of
// participants: empty ids are dropped, the rest sorted and joined with "_".
// Both argument orders yield the same id. Ids that themselves contain "_"
// can collide; known limitation.
func ConversationID(a, b string) string {
	ids := make([]string, 0, 2)
	if a != "" {
		ids = append(ids, a)
	}
	if b != "" {
		ids = append(ids, b)
	}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
