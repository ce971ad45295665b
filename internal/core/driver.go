//go:build !noodbc

package core

// The ODBC driver needs cgo and unixODBC; build with -tags noodbc to leave it
// out, e.g. for tests that only use sqlmock.
import _ "github.com/alexbrainman/odbc"
