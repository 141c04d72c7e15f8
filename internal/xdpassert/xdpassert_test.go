// File: internal/xdpassert/xdpassert_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package xdpassert

import "testing"

func TestPowerOfTwo_PanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected PowerOfTwo(1000) to panic")
		}
	}()
	PowerOfTwo("ring element count", 1000)
}

func TestPowerOfTwo_AcceptsPowerOfTwo(t *testing.T) {
	PowerOfTwo("ring element count", 2048)
}
