package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core"
)

// database/sql does not export the error returned once the *sql.DB is closed.
const errDBClosedText = "sql: database is closed"

// wrapErr wraps a database error; a closed database is reported as a shutdown error.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if cause := errors.Cause(err); cause == sql.ErrConnDone || cause.Error() == errDBClosedText {
		return errors.Wrap(core.ShutdownFrom(cause), msg)
	}
	return errors.Wrap(err, msg)
}
