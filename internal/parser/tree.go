package parser

import "github.com/keyfc/bbs/pkg/models"

// flatForum is one index row before nesting
type flatForum struct {
	name  string
	id    string
	level int
}

type forumNode struct {
	flatForum
	children []*forumNode
}

func (n *forumNode) forum() models.Forum {
	f := models.Forum{Name: n.name, ID: n.id}
	for _, c := range n.children {
		f.SubForums = append(f.SubForums, c.forum())
	}
	return f
}

// buildForumTree nests rows in one pass: a row becomes a descendant of the nearest
// preceding row with a strictly lower level. Document order is kept.
func buildForumTree(rows []flatForum) []models.Forum {
	var roots, stack []*forumNode

	closeTop := func() {
		done := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			roots = append(roots, done)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, done)
		}
	}

	for _, row := range rows {
		for len(stack) > 0 && stack[len(stack)-1].level >= row.level {
			closeTop()
		}
		stack = append(stack, &forumNode{flatForum: row})
	}
	for len(stack) > 0 {
		closeTop()
	}

	forums := make([]models.Forum, 0, len(roots))
	for _, r := range roots {
		forums = append(forums, r.forum())
	}
	return forums
}
