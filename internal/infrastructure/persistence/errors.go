package persistence

import (
	"errors"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"gorm.io/gorm"
)

func translate(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(kind)
	}
	return err
}

func conflict(kind string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, kind+" was modified by another transaction")
}
