// Package testsdetection guards the test overrides of other packages.
package testsdetection

import (
	"testing"
)

// MustBeTesting panics if we are not running under tests.
func MustBeTesting() {
	if !testing.Testing() {
		panic("This can only be called in tests")
	}
}
