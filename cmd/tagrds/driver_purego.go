//go:build purego

package main

// Pure-Go build (-tags purego): no cgo toolchain required.
import _ "modernc.org/sqlite"

const sqlDriverName = "sqlite"
