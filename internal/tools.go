//go:build tools
// +build tools

// Package tools declares Go tool dependencies: the stringer generator
// invoked by vga.Color's go:generate directive, and golint, which lints
// this module the same way it lints the teacher's.
package tools

import (
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/stringer"
)
