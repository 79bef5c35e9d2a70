package services

import (
	"sort"
	"strings"
)

// ConversationKey derives the de-duplication key of a conversation: the
// participant ids sorted lexicographically, joined with "-", followed by
// "-{productID}". It does not depend on participant order.
func ConversationKey(participants []string, productID string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	return strings.Join(sorted, "-") + "-" + productID
}
