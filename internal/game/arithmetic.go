package game

import (
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

func addUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, fmt.Errorf("%s overflows uint64", field)
	}
	return a + b, nil
}

func addInt64AndU64Checked(base int64, delta uint64, field string) (int64, error) {
	if delta > uint64(math.MaxInt64) {
		return 0, fmt.Errorf("%s overflows int64", field)
	}
	d := int64(delta)
	if base > math.MaxInt64-d {
		return 0, fmt.Errorf("%s overflows int64", field)
	}
	return base + d, nil
}

// percentOf returns floor(amount * percent / 100). The product is computed
// in 256-bit space; the result never exceeds amount for percent <= 100.
func percentOf(amount uint64, percent uint64) uint64 {
	if percent > MaxFeePercent {
		percent = MaxFeePercent
	}
	return sdkmath.NewUint(amount).MulUint64(percent).QuoUint64(100).Uint64()
}
