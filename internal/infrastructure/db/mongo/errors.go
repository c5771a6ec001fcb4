package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// translateError maps driver errors onto the domain taxonomy. The driver error
// is kept as text only so callers cannot match on mongo types.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrAccountNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, domain.ErrStorageTimeout)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
	}
}
