// File: internal/plugin/hooks.go
package plugin

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Op names the helper operation a statement belongs to.
type Op string

const (
	OpSelect Op = "select"
	OpUpdate Op = "update"
	OpInsert Op = "insert"
	OpUpsert Op = "upsert"
	OpBulk   Op = "bulk-insert"
)

// Hooks defines callbacks around every statement the client runs.
// An error from BeforeStatement aborts the statement before it reaches the driver.
// n is the row count: rows read for selects, rows affected for writes.
type Hooks interface {
	BeforeStatement(ctx context.Context, op Op, query string, args []interface{}) error
	AfterStatement(ctx context.Context, op Op, query string, n int64, err error)
}

// Nop is a Hooks that does nothing
type Nop struct{}

func (Nop) BeforeStatement(context.Context, Op, string, []interface{}) error { return nil }
func (Nop) AfterStatement(context.Context, Op, string, int64, error)         {}

// LogHooks logs statements at debug level and failures at error level.
// Bound values are not logged.
type LogHooks struct {
	Entry *log.Entry
}

func (h LogHooks) entry() *log.Entry {
	if h.Entry == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return h.Entry
}

func (h LogHooks) BeforeStatement(ctx context.Context, op Op, query string, args []interface{}) error {
	h.entry().WithFields(log.Fields{
		"op":    op,
		"query": query,
		"args":  len(args),
	}).Debug("statement")
	return nil
}

func (h LogHooks) AfterStatement(ctx context.Context, op Op, query string, n int64, err error) {
	if err != nil {
		h.entry().WithFields(log.Fields{
			"op":    op,
			"query": query,
			"error": err.Error(),
		}).Error("statement failed")
		return
	}
	h.entry().WithFields(log.Fields{
		"op":   op,
		"rows": n,
	}).Debug("statement done")
}

// Chain runs several Hooks in order. BeforeStatement stops at the first error.
type Chain []Hooks

func (c Chain) BeforeStatement(ctx context.Context, op Op, query string, args []interface{}) error {
	for _, h := range c {
		if err := h.BeforeStatement(ctx, op, query, args); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) AfterStatement(ctx context.Context, op Op, query string, n int64, err error) {
	for _, h := range c {
		h.AfterStatement(ctx, op, query, n, err)
	}
}
