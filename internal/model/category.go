package model

import "time"

// Category represents a user-defined spending or income label.
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	UserID    string    `json:"-"`
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	IsIncome  bool      `json:"is_income"`
}

// AcceptsDirection reports whether transactions with the given direction may
// be assigned to this category. Income categories take income transactions,
// expense categories take expenses.
func (c *Category) AcceptsDirection(d Direction) bool {
	if c.IsIncome {
		return d == DirectionIncome
	}
	return d == DirectionExpense
}

// CategoryNode is a category with its children resolved, for tree listings.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children,omitempty"`
}

// BuildCategoryTree assembles a parent/child tree from a flat list.
// Categories whose parent is absent from the list are treated as roots.
// Input order is preserved at every level.
func BuildCategoryTree(categories []Category) []*CategoryNode {
	nodes := make(map[int64]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i]}
	}

	var roots []*CategoryNode
	for i := range categories {
		node := nodes[categories[i].ID]
		if pid := categories[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
