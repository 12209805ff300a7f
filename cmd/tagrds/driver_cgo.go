//go:build !purego

package main

// Default build: cgo-backed sqlite3 driver.
import _ "github.com/mattn/go-sqlite3"

const sqlDriverName = "sqlite3"
