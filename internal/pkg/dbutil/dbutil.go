package dbutil

import (
	"github.com/jmoiron/sqlx"
)

// Finalize rebinds gendry-generated '?' placeholders to the $N form
// postgres expects.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
