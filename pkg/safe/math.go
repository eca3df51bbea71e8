package safe

import (
	"errors"
	"math"
)

// ErrOverflow is returned when an int64 operation would wrap around.
var ErrOverflow = errors.New("safe: int64 overflow")

// Add performs int64 addition and reports overflow/underflow.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub performs int64 subtraction and reports overflow/underflow.
func Sub(a, b int64) (int64, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul performs int64 multiplication and reports overflow/underflow.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				return 0, ErrOverflow
			}
		} else if b < math.MinInt64/a {
			return 0, ErrOverflow
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				return 0, ErrOverflow
			}
		} else if a < math.MaxInt64/b {
			return 0, ErrOverflow
		}
	}
	return a * b, nil
}

// Sum adds all values, stopping at the first overflow.
func Sum(values ...int64) (int64, error) {
	var total int64
	for _, v := range values {
		var err error
		if total, err = Add(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}
