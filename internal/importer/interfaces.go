package importer

import (
	"context"

	"github.com/Veraticus/solari/internal/model"
)

// Matcher picks the category rule that applies to a transaction
// description, if any.
type Matcher interface {
	Match(ctx context.Context, userID, description string) (*model.CategoryRule, bool, error)
}
