package conversation

import (
	"fmt"
	"strings"
)

// Ledger is the ordered turn history of one session.
type Ledger struct {
	Turns []*Turn `json:"turns"`
}

// Append adds a user turn followed by its model turn.
func (l *Ledger) Append(user, model *Turn) {
	l.Turns = append(l.Turns, user, model)
}

// Lookup returns the turn with the supplied ID.
func (l *Ledger) Lookup(id string) (*Turn, int) {
	for i, turn := range l.Turns {
		if turn.ID == id {
			return turn, i
		}
	}
	return nil, -1
}

// Last returns the most recent model turn.
func (l *Ledger) Last() *Turn {
	for i := len(l.Turns) - 1; i >= 0; i-- {
		if l.Turns[i].Role == RoleModel {
			return l.Turns[i]
		}
	}
	return nil
}

// Pair returns the user and model turns of the submission containing id.
func (l *Ledger) Pair(id string) (user, model *Turn, ok bool) {
	turn, index := l.Lookup(id)
	if turn == nil {
		return nil, nil, false
	}
	switch turn.Role {
	case RoleUser:
		if index+1 < len(l.Turns) && l.Turns[index+1].Role == RoleModel {
			return turn, l.Turns[index+1], true
		}
	case RoleModel:
		if index > 0 && l.Turns[index-1].Role == RoleUser {
			return l.Turns[index-1], turn, true
		}
	}
	return nil, nil, false
}

// Remove deletes the turns with the supplied IDs.
func (l *Ledger) Remove(ids ...string) {
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := l.Turns[:0]
	for _, turn := range l.Turns {
		if !drop[turn.ID] {
			kept = append(kept, turn)
		}
	}
	for i := len(kept); i < len(l.Turns); i++ {
		l.Turns[i] = nil
	}
	l.Turns = kept
}

// Reset drops every turn.
func (l *Ledger) Reset() {
	l.Turns = nil
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	ret := &Ledger{Turns: make([]*Turn, len(l.Turns))}
	for i, turn := range l.Turns {
		ret.Turns[i] = turn.Clone()
	}
	return ret
}

// History renders up to limit completed question/answer pairs preceding the
// turn with the supplied ID, oldest first.
func (l *Ledger) History(beforeID string, limit int) string {
	if limit <= 0 {
		return ""
	}
	var pairs []string
	for i := 0; i+1 < len(l.Turns); i++ {
		user, model := l.Turns[i], l.Turns[i+1]
		if model.ID == beforeID {
			break
		}
		if user.Role != RoleUser || model.Role != RoleModel || model.State != StateDone {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("User: %s\nAssistant: %s", user.Text, model.Text))
		i++
	}
	if len(pairs) > limit {
		pairs = pairs[len(pairs)-limit:]
	}
	return strings.Join(pairs, "\n\n")
}
