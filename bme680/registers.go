// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

const (
	chipID = 0x61

	regChipID    = 0xD0
	regSoftReset = 0xE0
	cmdSoftReset = 0xB6

	regCtrlGas0 = 0x70 // heat_off
	regCtrlGas1 = 0x71 // run_gas, nb_conv
	regCtrlHum  = 0x72 // osrs_h
	regCtrlMeas = 0x74 // osrs_t, osrs_p, mode
	regConfig   = 0x75 // filter

	regField0   = 0x1D
	fieldLength = 15

	regResHeat0 = 0x5A
	regGasWait0 = 0x64

	regCoeff1    = 0x89
	regCoeff1Len = 25
	regCoeff2    = 0xE1
	regCoeff2Len = 16

	regResHeatVal   = 0x00
	regResHeatRange = 0x02
	regRangeSwErr   = 0x04
)

// field is the location of a bit-field within a single register.
type field struct {
	reg  uint8
	mask uint8
	pos  uint8
}

var (
	fieldOSRSTemp  = field{regCtrlMeas, 0xE0, 5}
	fieldOSRSPress = field{regCtrlMeas, 0x1C, 2}
	fieldMode      = field{regCtrlMeas, 0x03, 0}
	fieldOSRSHum   = field{regCtrlHum, 0x07, 0}
	fieldFilter    = field{regConfig, 0x1C, 2}
	fieldHeatOff   = field{regCtrlGas0, 0x08, 3}
	fieldRunGas    = field{regCtrlGas1, 0x10, 4}
	fieldNbConv    = field{regCtrlGas1, 0x0F, 0}
)

// Masks applied to the field block and to the standalone calibration bytes.
const (
	maskNewData      = 0x80
	maskGasIndex     = 0x0F
	maskGasRange     = 0x0F
	maskGasValid     = 0x20
	maskHeatStable   = 0x10
	maskResHeatRange = 0x30
	maskRangeSwErr   = 0xF0
)

func (f field) get(v uint8) uint8 {
	return (v & f.mask) >> f.pos
}

func (d *Dev) readReg(reg uint8, b []byte) error {
	return d.d.Tx([]byte{reg}, b)
}

func (d *Dev) readByte(reg uint8) (uint8, error) {
	var b [1]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) writeReg(reg, v uint8) error {
	return d.d.Tx([]byte{reg, v}, nil)
}

// setField does a read-modify-write of f within its register.
//
// It must be called with d.mu lock held.
func (d *Dev) setField(f field, value uint8) error {
	old, err := d.readByte(f.reg)
	if err != nil {
		return err
	}
	return d.writeReg(f.reg, old&^f.mask|(value<<f.pos)&f.mask)
}
