package telemetry

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// gormHook binds one GORM callback chain to the SQL verb it executes.
type gormHook struct {
	name      string
	operation string
	// otelName is the suffix otelgorm uses for its callbacks on this chain.
	otelName string
	before   func(name string, fn func(*gorm.DB)) error
	// after registers fn after the chain's gorm step and, when limit is
	// set, ahead of the callback named limit.
	after func(name string, fn func(*gorm.DB), limit string) error
}

type chainCallback[C any] interface {
	Before(name string) C
	Register(name string, fn func(*gorm.DB)) error
}

func register[C chainCallback[C]](c C, limit, name string, fn func(*gorm.DB)) error {
	if limit != "" {
		c = c.Before(limit)
	}
	return c.Register(name, fn)
}

// gormHooks lists the callback chains a plugin instruments. Row and Raw
// report an empty operation; the verb is read from the statement.
func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{
			name: "create", operation: "INSERT", otelName: "create",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Create().Before("gorm:create"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Create().After("gorm:create"), l, n, fn) },
		},
		{
			name: "query", operation: "SELECT", otelName: "select",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Query().Before("gorm:query"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Query().After("gorm:query"), l, n, fn) },
		},
		{
			name: "update", operation: "UPDATE", otelName: "update",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Update().Before("gorm:update"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Update().After("gorm:update"), l, n, fn) },
		},
		{
			name: "delete", operation: "DELETE", otelName: "delete",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Delete().Before("gorm:delete"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Delete().After("gorm:delete"), l, n, fn) },
		},
		{
			name: "row", otelName: "row",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Row().Before("gorm:row"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Row().After("gorm:row"), l, n, fn) },
		},
		{
			name: "raw", otelName: "raw",
			before: func(n string, fn func(*gorm.DB)) error { return register(cb.Raw().Before("gorm:raw"), "", n, fn) },
			after:  func(n string, fn func(*gorm.DB), l string) error { return register(cb.Raw().After("gorm:raw"), l, n, fn) },
		},
	}
}

type queryStartKey struct{ plugin string }

// markQueryStart stores the statement start time under the plugin's key.
func markQueryStart(plugin string) func(*gorm.DB) {
	key := queryStartKey{plugin}
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

// queryElapsed returns the time since markQueryStart ran for plugin.
func queryElapsed(db *gorm.DB, plugin string) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{plugin}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// detectOperationType reads the SQL verb from a raw statement.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	if strings.HasPrefix(sql, "WITH") {
		return "SELECT"
	}
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
