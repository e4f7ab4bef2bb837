package repository

import (
	"testing"

	"lineup/queue-engine/internal/constant"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "noop"))

	dup := errors.Wrap(&pgconn.PgError{Code: "23505", Message: "duplicate key value"}, "insert")
	assert.ErrorIs(t, translate(dup, "save"), constant.ErrDuplicateEntry)

	fk := &pgconn.PgError{Code: "23503", Message: "foreign key violation"}
	err := translate(fk, "save")
	assert.NotErrorIs(t, err, constant.ErrDuplicateEntry)
	assert.ErrorContains(t, err, "foreign key violation")

	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "get"), gorm.ErrRecordNotFound)
}
