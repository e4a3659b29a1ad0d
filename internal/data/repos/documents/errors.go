package documents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict marks a write rejected by a unique constraint.
var ErrConflict = errors.New("unique constraint conflict")

// translateWriteErr tags unique violations with ErrConflict and passes every
// other error through unchanged.
func translateWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.TrimSpace(pgErr.Code) == "23505" { // unique_violation
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, errors.Join(ErrConflict, err))
		}
		return err
	}
	// sqlite reports constraint failures as plain text.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%s: %w", op, errors.Join(ErrConflict, err))
	}
	return err
}
