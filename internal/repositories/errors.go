package repositories

import (
	"database/sql"
)

// requireAffected maps a zero-row write to the provided sentinel.
func requireAffected(res sql.Result, sentinel error) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return sentinel
	}
	return nil
}
