package persistence

import (
	"errors"

	"github.com/erp/costledger/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto domain errors at the repository boundary.
// Duplicate keys surface as gorm.ErrDuplicatedKey only when the connection was
// opened with TranslateError.
func translateError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}
