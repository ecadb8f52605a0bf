package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/classfence/core"
)

// RollbarLogger prints one line per entry and forwards info and above to Rollbar.
// Debug entries (e.g. rejected samples) are printed in debug mode only and never reach Rollbar.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued items to be sent to Rollbar.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// entry splits the arguments of a log call: msg | error, map[string]interface{}, core.Identity.
// Field maps are merged (later keys win) since Rollbar keeps a single extras map per item.
type entry struct {
	msg    string
	args   []interface{}
	fields map[string]interface{}
	caller *core.Identity
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case core.Identity:
			if e.caller == nil { // only keep the first Identity
				id := v
				e.caller = &id
			}
		case map[string]interface{}:
			if e.fields == nil {
				e.fields = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.fields[k] = val
			}
		default:
			e.args = append(e.args, arg)
		}
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	if e.caller != nil {
		rollbar.SetPerson(e.caller.ID, e.caller.Username, e.caller.Email)
	} else {
		rollbar.ClearPerson()
	}
	args := make([]interface{}, 0, len(e.args)+2)
	args = append(args, e.msg)
	args = append(args, e.args...)
	if e.fields != nil {
		args = append(args, e.fields)
	}
	return args
}

// String renders the entry as: msg | arg | key=value ... | caller=ID
func (e entry) String() string {
	parts := []string{e.msg}
	for _, arg := range e.args {
		parts = append(parts, fmt.Sprintf("%+v", arg))
	}
	if len(e.fields) > 0 {
		keys := make([]string, 0, len(e.fields))
		for k := range e.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kvs := make([]string, 0, len(keys))
		for _, k := range keys {
			kvs = append(kvs, fmt.Sprintf("%s=%v", k, e.fields[k]))
		}
		parts = append(parts, strings.Join(kvs, " "))
	}
	if e.caller != nil {
		parts = append(parts, "caller="+e.caller.ID)
	}
	return strings.Join(parts, " | ")
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.std.Println("DEBUG " + newEntry(msg, args).String())
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Info(e.rollbarArgs()...)
	l.std.Println("INFO " + e.String())
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Warning(e.rollbarArgs()...)
	l.std.Println("WARN " + e.String())
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Error(e.rollbarArgs()...)
	l.std.Println("ERROR " + e.String())
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Critical(e.rollbarArgs()...)
	rollbar.Close()
	l.std.Fatal("FATAL " + e.String())
}
