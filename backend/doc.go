// Package backend provides a pluggable device registry.
//
// Device implementations register a factory from an init() function,
// following the database/sql driver pattern, and are opened by name at
// runtime:
//
//	import (
//	    "github.com/gogpu/batch2d/backend"
//	    _ "github.com/gogpu/batch2d/backend/native"
//	    _ "github.com/gogpu/batch2d/recording"
//	)
//
//	dev, err := backend.Open("native", backend.Config{Width: 800, Height: 600})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
// # Backend Selection
//
// Use Default() to open the best available backend. Backends are tried in
// priority order (native, then recording); the first that opens wins.
package backend
