package safe

import (
	"errors"
	"math/big"
	"testing"
)

func checkAgainstBig(t *testing.T, op string, got int64, err error, exact *big.Int) {
	t.Helper()
	if exact.IsInt64() {
		if err != nil {
			t.Fatalf("%s: unexpected error %v for representable result %s", op, err, exact)
		}
		if got != exact.Int64() {
			t.Fatalf("%s: got %d, want %s", op, got, exact)
		}
		return
	}
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("%s: expected overflow for %s, got %d", op, exact, got)
	}
}

func FuzzAdd(f *testing.F) {
	f.Add(int64(0), int64(0))
	f.Add(int64(1), int64(2))
	f.Add(int64(9223372036854775807), int64(1))
	f.Add(int64(-9223372036854775808), int64(-1))

	f.Fuzz(func(t *testing.T, a, b int64) {
		got, err := Add(a, b)
		checkAgainstBig(t, "Add", got, err, new(big.Int).Add(big.NewInt(a), big.NewInt(b)))
	})
}

func FuzzSub(f *testing.F) {
	f.Add(int64(0), int64(0))
	f.Add(int64(10), int64(5))
	f.Add(int64(-9223372036854775808), int64(1))

	f.Fuzz(func(t *testing.T, a, b int64) {
		got, err := Sub(a, b)
		checkAgainstBig(t, "Sub", got, err, new(big.Int).Sub(big.NewInt(a), big.NewInt(b)))
	})
}

func FuzzMul(f *testing.F) {
	f.Add(int64(3), int64(4))
	f.Add(int64(-9223372036854775808), int64(-1))
	f.Add(int64(4611686018427387904), int64(2))

	f.Fuzz(func(t *testing.T, a, b int64) {
		got, err := Mul(a, b)
		checkAgainstBig(t, "Mul", got, err, new(big.Int).Mul(big.NewInt(a), big.NewInt(b)))
	})
}
