package conv

import "testing"

func TestIntToUint32(t *testing.T) {
	for _, n := range []int{0, 1, 1 << 20} {
		if got := IntToUint32(n); int(got) != n {
			t.Errorf("IntToUint32(%d) = %d", n, got)
		}
	}
}

func TestIntToUint32Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("IntToUint32(-1) should panic")
		}
	}()
	IntToUint32(-1)
}
