package db

import (
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a duplicate-key rejection from
// postgres or sqlite. When constraintName is set it must match too; sqlite
// names are normalized to the "<table>_<column>_key" form.
func IsUniqueViolation(err error, constraintName string) bool {
	d := pkgerrors.Diagnose(err)
	if !d.UniqueViolation() {
		return false
	}
	return constraintName == "" || d.Constraint == constraintName
}
