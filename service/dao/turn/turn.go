// Package turn holds the archive of conversation turns removed from a
// session ledger.
package turn

import (
	"sort"

	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/service/dao"
)

// Service is the archive contract.
type Service = dao.Service[string, conversation.Turn]

// Fields exposes the filterable fields of a turn.
func Fields(t *conversation.Turn) map[string]string {
	return map[string]string{
		"ID":    t.ID,
		"Role":  string(t.Role),
		"State": string(t.State),
	}
}

// Sort orders turns by creation time, user turn first on ties.
func Sort(turns []*conversation.Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		if turns[i].CreatedAt.Equal(turns[j].CreatedAt) {
			return turns[i].Role == conversation.RoleUser && turns[j].Role != conversation.RoleUser
		}
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})
}
