package model

import (
	"testing"
)

func TestCategory_AcceptsDirection(t *testing.T) {
	tests := []struct {
		name      string
		category  Category
		direction Direction
		want      bool
	}{
		{
			name:      "expense category takes expenses",
			category:  Category{Name: "Food"},
			direction: DirectionExpense,
			want:      true,
		},
		{
			name:      "expense category rejects income",
			category:  Category{Name: "Food"},
			direction: DirectionIncome,
			want:      false,
		},
		{
			name:      "income category takes income",
			category:  Category{Name: "Salary", IsIncome: true},
			direction: DirectionIncome,
			want:      true,
		},
		{
			name:      "income category rejects expenses",
			category:  Category{Name: "Salary", IsIncome: true},
			direction: DirectionExpense,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.category.AcceptsDirection(tt.direction); got != tt.want {
				t.Errorf("AcceptsDirection(%q) = %v, want %v", tt.direction, got, tt.want)
			}
		})
	}
}

func TestBuildCategoryTree(t *testing.T) {
	parent := int64(1)
	missing := int64(99)
	cats := []Category{
		{ID: 1, Name: "Food"},
		{ID: 2, Name: "Groceries", ParentID: &parent},
		{ID: 3, Name: "Restaurants", ParentID: &parent},
		{ID: 4, Name: "Orphan", ParentID: &missing},
		{ID: 5, Name: "Transport"},
	}

	roots := BuildCategoryTree(cats)

	// Orphan's parent is not in the list, so it surfaces as a root.
	if len(roots) != 3 {
		t.Fatalf("BuildCategoryTree() returned %d roots, want 3", len(roots))
	}
	if roots[0].Name != "Food" || roots[1].Name != "Orphan" || roots[2].Name != "Transport" {
		t.Errorf("root order = %s, %s, %s, want Food, Orphan, Transport",
			roots[0].Name, roots[1].Name, roots[2].Name)
	}

	if len(roots[0].Children) != 2 {
		t.Fatalf("Food has %d children, want 2", len(roots[0].Children))
	}
	if roots[0].Children[0].Name != "Groceries" || roots[0].Children[1].Name != "Restaurants" {
		t.Errorf("Food children = %s, %s, want Groceries, Restaurants",
			roots[0].Children[0].Name, roots[0].Children[1].Name)
	}
}

func TestBuildCategoryTree_Empty(t *testing.T) {
	if got := BuildCategoryTree(nil); got != nil {
		t.Errorf("BuildCategoryTree(nil) = %v, want nil", got)
	}
}
