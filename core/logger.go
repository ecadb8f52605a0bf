package core

type (
	// Logger is any service that can record application events.
	// args may carry errors, maps of extra data and at most one Identity.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Identity is the caller a log entry is attributed to.
	Identity struct {
		ID       string
		Username string
		Email    string
	}
)
