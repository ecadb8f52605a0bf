package testutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
)

// Classroom is a 50m geofence in Bangalore.
var Classroom = tracking.Boundary{
	ID:     "class-101",
	Name:   "Room 101",
	Center: tracking.Coordinate{Lat: 12.9716, Lng: 77.5946},
	Radius: 50,
}

// NewConfig returns a test configuration that does not read the environment.
func NewConfig(staffEmails ...string) *core.Config {
	return &core.Config{
		AppName:   "Classfence",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			Address:            ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Tracking: core.TrackingConfig{
			DefaultRadius:    50,
			RegistryCacheTTL: time.Minute,
			StaffEmails:      staffEmails,
		},
	}
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Logger is a core.Logger that keeps its entries in memory.
type Logger struct {
	mu      sync.Mutex
	entries []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := level + ": " + msg
	for _, arg := range args {
		entry += fmt.Sprintf(" | %v", arg)
	}
	l.entries = append(l.entries, entry)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// Entries returns the logged entries with the given level prefix (e.g. "ERROR"); all entries if empty.
func (l *Logger) Entries(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if strings.HasPrefix(e, level) {
			entries = append(entries, e)
		}
	}
	return entries
}

// SequentialIDs returns an ID generator yielding "alert-1", "alert-2", ...
func SequentialIDs() func() string {
	var mu sync.Mutex
	var n int
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("alert-%d", n)
	}
}
