package service

import (
	"errors"
	"fmt"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// storageError keeps timeouts distinguishable and folds everything else into
// domain.ErrStorage, so no driver error type reaches the caller.
func storageError(op string, err error) error {
	if errors.Is(err, domain.ErrStorageTimeout) || errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
}
