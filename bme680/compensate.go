// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

// Gas range lookup tables, indexed by the 4 bits gas range.
var (
	gasRangeLUT1 = [16]int64{
		2147483647, 2147483647, 2147483647, 2147483647, 2147483647,
		2126008810, 2147483647, 2130303777, 2147483647, 2147483647,
		2143188679, 2136746228, 2147483647, 2126008810, 2147483647,
		2147483647,
	}
	gasRangeLUT2 = [16]int64{
		4096000000, 2048000000, 1024000000, 512000000, 255744255,
		127110228, 64000000, 32258064, 16016016, 8000000,
		4000000, 2000000, 1000000, 500000, 250000,
		125000,
	}
)

// compensateTemp returns temperature in °C, resolution is 0.01 °C.
// Output value of 5123 equals 51.23 C.
//
// raw has 20 bits of resolution. offset is added to the returned tFine, which
// pressure and humidity compensation depend on.
func (c *calibration) compensateTemp(raw, offset int32) (t, tFine int32) {
	var1 := (raw >> 3) - (c.t[0] << 1)
	var2 := (var1 * c.t[1]) >> 11
	var3 := ((var1 >> 1) * (var1 >> 1)) >> 12
	var3 = (var3 * (c.t[2] << 4)) >> 14
	tFine = var2 + var3 + offset
	return ((tFine * 5) + 128) >> 8, tFine
}

// compensatePressure returns pressure in Pa. Output value of 96386 equals
// 963.86 hPa.
//
// raw has 20 bits of resolution.
func (c *calibration) compensatePressure(raw, tFine int32) int32 {
	var1 := (tFine >> 1) - 64000
	var2 := ((((var1 >> 2) * (var1 >> 2)) >> 11) * c.p[5]) >> 2
	var2 = var2 + ((var1 * c.p[4]) << 1)
	var2 = (var2 >> 2) + (c.p[3] << 16)
	var1 = (((((var1 >> 2) * (var1 >> 2)) >> 13) * (c.p[2] << 5)) >> 3) +
		((c.p[1] * var1) >> 1)
	var1 = var1 >> 18
	var1 = ((32768 + var1) * c.p[0]) >> 15
	if var1 == 0 {
		// Avoid a division by zero with blank calibration.
		return 0
	}
	// The multiplication is unsigned and wraps at 32 bits.
	p := int32(uint32((1048576-raw)-(var2>>12)) * 3125)
	// Divide first when shifting would overflow.
	if p >= 1<<30 {
		p = (p / var1) << 1
	} else {
		p = (p << 1) / var1
	}
	var1 = (c.p[8] * (((p >> 3) * (p >> 3)) >> 13)) >> 12
	var2 = ((p >> 2) * c.p[7]) >> 13
	var3 := ((p >> 8) * (p >> 8) * (p >> 8) * c.p[9]) >> 17
	return p + ((var1 + var2 + var3 + (c.p[6] << 7)) >> 4)
}

// compensateHumidity returns humidity in thousandth of %RH, clamped to
// [0, 100000]. Output value of 46333 represents 46.333%.
//
// raw has 16 bits of resolution.
func (c *calibration) compensateHumidity(raw, tFine int32) int32 {
	tempScaled := ((tFine * 5) + 128) >> 8
	var1 := raw - c.h[0]*16 - (((tempScaled * c.h[2]) / 100) >> 1)
	var2 := (c.h[1] * (((tempScaled * c.h[3]) / 100) +
		(((tempScaled * ((tempScaled * c.h[4]) / 100)) >> 6) / 100) + (1 << 14))) >> 10
	var3 := var1 * var2
	var4 := c.h[5] << 7
	var4 = (var4 + ((tempScaled * c.h[6]) / 100)) >> 4
	var5 := ((var3 >> 14) * (var3 >> 14)) >> 10
	var6 := (var4 * var5) >> 1
	calcHum := (((var3 + var6) >> 10) * 1000) >> 12
	// Cap at 100%rH.
	if calcHum > 100000 {
		return 100000
	}
	if calcHum < 0 {
		return 0
	}
	return calcHum
}

// compensateGas returns the gas resistance in Ω.
//
// raw has 10 bits of resolution, gasRange 4 bits.
func (c *calibration) compensateGas(raw uint16, gasRange uint8) uint32 {
	r := gasRange & maskGasRange
	var1 := ((1340 + 5*int64(c.rangeSwErr)) * gasRangeLUT1[r]) >> 16
	var2 := ((int64(raw) << 15) - 16777216) + var1
	var3 := (gasRangeLUT2[r] * var1) >> 9
	return uint32((var3 + (var2 >> 1)) / var2)
}
