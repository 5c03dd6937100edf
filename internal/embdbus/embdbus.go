// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package embdbus exposes an embd I²C bus as a periph.io i2c.Bus, so device
// drivers written against periph can run on hosts where embd provides the
// bus.
package embdbus

import (
	"fmt"

	"github.com/kidoman/embd"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Bus adapts an embd.I2CBus.
//
// embd only knows register oriented transactions, so Tx supports a write, a
// read, or a single register byte write followed by a read.
type Bus struct {
	b    embd.I2CBus
	name string
	// release is called by Close after the bus was closed.
	release func() error
}

// New wraps b. Close closes b.
func New(b embd.I2CBus, name string) *Bus {
	return &Bus{b: b, name: name}
}

// Open initializes the embd I²C driver and opens bus n.
//
// Close also tears down the embd I²C driver.
func Open(n byte) (*Bus, error) {
	if err := embd.InitI2C(); err != nil {
		return nil, errors.Wrap(err, "embdbus: init")
	}
	b := New(embd.NewI2CBus(n), fmt.Sprintf("embd-i2c%d", n))
	b.release = embd.CloseI2C
	return b, nil
}

func (b *Bus) String() string {
	return b.name
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errors.Errorf("embdbus: address 0x%X: 10 bit addresses are not supported", addr)
	}
	a := byte(addr)
	switch {
	case len(r) == 0:
		if len(w) == 0 {
			return nil
		}
		return errors.Wrapf(b.b.WriteBytes(a, w), "embdbus: write %d bytes to 0x%02X", len(w), a)
	case len(w) == 0:
		v, err := b.b.ReadBytes(a, len(r))
		if err != nil {
			return errors.Wrapf(err, "embdbus: read %d bytes from 0x%02X", len(r), a)
		}
		copy(r, v)
		return nil
	case len(w) == 1:
		return errors.Wrapf(b.b.ReadFromReg(a, w[0], r), "embdbus: read register 0x%02X of 0x%02X", w[0], a)
	default:
		return errors.Errorf("embdbus: %d bytes write before a read is not supported", len(w))
	}
}

// SetSpeed implements i2c.Bus.
//
// embd configures the bus clock at the kernel level.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return errors.Errorf("embdbus: can't set speed to %s", f)
}

// Close closes the underlying bus.
func (b *Bus) Close() error {
	if err := b.b.Close(); err != nil {
		return errors.Wrapf(err, "embdbus: close %s", b.name)
	}
	if b.release != nil {
		return errors.Wrap(b.release(), "embdbus: release")
	}
	return nil
}

var _ i2c.BusCloser = &Bus{}
