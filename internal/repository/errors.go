package repository

import (
	"lineup/queue-engine/internal/constant"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translate maps driver errors onto the package sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrap(constant.ErrDuplicateEntry, what)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(gorm.ErrRecordNotFound, what)
	}
	return errors.Wrap(err, what)
}
