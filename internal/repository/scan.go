package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
