package database

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes the services react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeUndefinedTable      = "42P01"
)

func pqCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

// IsConstraintViolation reports whether err is a unique, foreign key, not
// null or check constraint failure.
func IsConstraintViolation(err error) bool {
	code, ok := pqCode(err)
	if !ok {
		return false
	}
	switch code {
	case codeUniqueViolation, codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation:
		return true
	}
	return false
}

// IsCheckViolation reports whether err is a CHECK constraint failure (23514).
func IsCheckViolation(err error) bool {
	code, ok := pqCode(err)
	return ok && code == codeCheckViolation
}

// IsUndefinedTable reports whether err is PostgreSQL's undefined_table (42P01).
func IsUndefinedTable(err error) bool {
	code, ok := pqCode(err)
	return ok && code == codeUndefinedTable
}

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
