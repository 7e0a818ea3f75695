//go:build !unix

package stageexec_test

import "testing"

func assertGrandchildGone(t *testing.T, _ string) {
	t.Helper()
}
