// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

// Offsets in the 41 bytes buffer made of the two coefficient blocks.
const (
	offT2LSB  = 1
	offT2MSB  = 2
	offT3     = 3
	offP1LSB  = 5
	offP1MSB  = 6
	offP2LSB  = 7
	offP2MSB  = 8
	offP3     = 9
	offP4LSB  = 11
	offP4MSB  = 12
	offP5LSB  = 13
	offP5MSB  = 14
	offP7     = 15
	offP6     = 16
	offP8LSB  = 19
	offP8MSB  = 20
	offP9LSB  = 21
	offP9MSB  = 22
	offP10    = 23
	offH2MSB  = 25
	offH2LSB  = 26
	offH1LSB  = 26
	offH1MSB  = 27
	offH3     = 28
	offH4     = 29
	offH5     = 30
	offH6     = 31
	offH7     = 32
	offT1LSB  = 33
	offT1MSB  = 34
	offGH2LSB = 35
	offGH2MSB = 36
	offGH1    = 37
	offGH3    = 38

	calibrationLen = regCoeff1Len + regCoeff2Len

	// H1 and H2 share a byte, each taking one nibble.
	humidityShift = 4
	maskH1LSB     = 0x0F
)

// calibration holds the factory trimming values. It is loaded once by NewI2C
// and never modified afterward.
type calibration struct {
	t  [3]int32
	p  [10]int32
	h  [7]int32
	gh [3]int32

	resHeatRange int32
	resHeatVal   int32
	rangeSwErr   int32
}

// newCalibration parses the coefficient buffer and the three standalone
// heater correction bytes.
func newCalibration(b []byte, resHeatRange, resHeatVal, rangeSwErr byte) (c calibration) {
	c.t[0] = word(b[offT1MSB], b[offT1LSB], false)
	c.t[1] = word(b[offT2MSB], b[offT2LSB], true)
	c.t[2] = int32(int8(b[offT3]))

	c.p[0] = word(b[offP1MSB], b[offP1LSB], false)
	c.p[1] = word(b[offP2MSB], b[offP2LSB], true)
	c.p[2] = int32(int8(b[offP3]))
	c.p[3] = word(b[offP4MSB], b[offP4LSB], true)
	c.p[4] = word(b[offP5MSB], b[offP5LSB], true)
	c.p[5] = int32(int8(b[offP6]))
	c.p[6] = int32(int8(b[offP7]))
	c.p[7] = word(b[offP8MSB], b[offP8LSB], true)
	c.p[8] = word(b[offP9MSB], b[offP9LSB], true)
	c.p[9] = int32(b[offP10])

	c.h[0] = int32(b[offH1MSB])<<humidityShift | int32(b[offH1LSB]&maskH1LSB)
	c.h[1] = int32(b[offH2MSB])<<humidityShift | int32(b[offH2LSB]>>humidityShift)
	c.h[2] = int32(int8(b[offH3]))
	c.h[3] = int32(int8(b[offH4]))
	c.h[4] = int32(int8(b[offH5]))
	c.h[5] = int32(b[offH6])
	c.h[6] = int32(int8(b[offH7]))

	c.gh[0] = int32(int8(b[offGH1]))
	c.gh[1] = word(b[offGH2MSB], b[offGH2LSB], true)
	c.gh[2] = int32(int8(b[offGH3]))

	// res_heat_range is bits <5:4> and range_sw_err bits <7:4>; both are
	// normalized by dividing by 16.
	c.resHeatRange = int32(resHeatRange&maskResHeatRange) / 16
	c.resHeatVal = int32(int8(resHeatVal))
	c.rangeSwErr = int32(rangeSwErr&maskRangeSwErr) / 16
	return c
}

// word combines a MSB/LSB pair. A signed word keeps the sign of msb.
func word(msb, lsb byte, signed bool) int32 {
	if signed {
		return int32(int8(msb))<<8 | int32(lsb)
	}
	return int32(msb)<<8 | int32(lsb)
}

// readCalibration reads both coefficient blocks and the heater correction
// bytes.
//
// It must be called with d.mu lock held.
func (d *Dev) readCalibration() (calibration, error) {
	var buf [calibrationLen]byte
	if err := d.readReg(regCoeff1, buf[:regCoeff1Len]); err != nil {
		return calibration{}, err
	}
	if err := d.readReg(regCoeff2, buf[regCoeff1Len:]); err != nil {
		return calibration{}, err
	}
	rng, err := d.readByte(regResHeatRange)
	if err != nil {
		return calibration{}, err
	}
	val, err := d.readByte(regResHeatVal)
	if err != nil {
		return calibration{}, err
	}
	swErr, err := d.readByte(regRangeSwErr)
	if err != nil {
		return calibration{}, err
	}
	return newCalibration(buf[:], rng, val, swErr), nil
}
