package field

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FieldNumber computes the dotted nesting index of target within siblings,
// e.g. "1.2.1" for the first field of the second group on page one.
// Siblings must be the parent form's full field sequence ordered by Sort.
//
// The walk keeps a stack of counters (outer level = page, inner levels =
// groups) plus a running counter for the groups already closed at the
// current depth:
//
//   - a page break replaces the stack with a single counter one past the
//     current page number and zeroes the running counter;
//   - a group start pushes runningCounter+1 and zeroes it;
//   - a group end pops the top counter back into the running counter, so a
//     later group at the same depth continues the numbering.
//
// Ordinary fields never advance a counter: their number is the position of
// the page/group enclosing them. Returns "" when the target is unsaved, has
// no parent, or does not appear in siblings.
func FieldNumber(target *EditableField, siblings []*EditableField) string {
	if target == nil || !target.Saved() || target.FormID == uuid.Nil || len(siblings) == 0 {
		return ""
	}

	var stack []int
	prior := 0 // groups closed so far at the current depth

	for _, f := range siblings {
		switch f.Role {
		case RolePageBreak:
			page := prior
			if len(stack) > 0 {
				page = stack[0]
			}
			stack = []int{page + 1}
			prior = 0
		case RoleGroupStart:
			stack = append(stack, prior+1)
			prior = 0
		case RoleGroupEnd:
			if len(stack) > 0 {
				prior = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		}
		if f.ID == target.ID {
			return joinCounters(stack)
		}
	}
	return ""
}

func joinCounters(stack []int) string {
	parts := make([]string, len(stack))
	for i, n := range stack {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
