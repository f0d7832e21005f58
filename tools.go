//go:build tools
// +build tools

// Package tools pins the generators invoked through `go generate`
// (mockgen for the mocks/ directory) so go.mod keeps tracking them.
package chat_store

import (
	_ "go.uber.org/mock/mockgen"
)
