// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package embdbus

import (
	"bytes"
	"testing"

	"github.com/kidoman/embd"
	"github.com/pkg/errors"

	"github.com/sonixh/envsense/bme680"
)

// fakeBus is a register file. Methods not overridden panic.
type fakeBus struct {
	embd.I2CBus
	regs   [256]byte
	addr   byte
	err    error
	closed bool
}

func (f *fakeBus) WriteBytes(addr byte, value []byte) error {
	f.addr = addr
	if f.err != nil {
		return f.err
	}
	copy(f.regs[value[0]:], value[1:])
	return nil
}

func (f *fakeBus) ReadBytes(addr byte, num int) ([]byte, error) {
	f.addr = addr
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(nil), f.regs[:num]...), nil
}

func (f *fakeBus) ReadFromReg(addr, reg byte, value []byte) error {
	f.addr = addr
	if f.err != nil {
		return f.err
	}
	copy(value, f.regs[reg:])
	return nil
}

func (f *fakeBus) Close() error {
	f.closed = true
	return nil
}

func TestBus_Tx(t *testing.T) {
	f := &fakeBus{}
	b := New(f, "fake")
	if s := b.String(); s != "fake" {
		t.Fatal(s)
	}
	if err := b.Tx(0x76, []byte{0x72, 0x01, 0x02}, nil); err != nil {
		t.Fatal(err)
	}
	if f.addr != 0x76 || f.regs[0x72] != 1 || f.regs[0x73] != 2 {
		t.Fatalf("0x%02X %v", f.addr, f.regs[0x72:0x74])
	}
	r := make([]byte, 2)
	if err := b.Tx(0x77, []byte{0x72}, r); err != nil {
		t.Fatal(err)
	}
	if f.addr != 0x77 || !bytes.Equal(r, []byte{1, 2}) {
		t.Fatalf("0x%02X %v", f.addr, r)
	}
	f.regs[0] = 0x42
	if err := b.Tx(0x76, nil, r[:1]); err != nil {
		t.Fatal(err)
	}
	if r[0] != 0x42 {
		t.Fatal(r)
	}
	if err := b.Tx(0x76, nil, nil); err != nil {
		t.Fatal(err)
	}
}

func TestBus_Tx_unsupported(t *testing.T) {
	b := New(&fakeBus{}, "fake")
	if err := b.Tx(0x200, []byte{0}, nil); err == nil {
		t.Fatal("10 bit address")
	}
	if err := b.Tx(0x76, []byte{0, 1}, make([]byte, 1)); err == nil {
		t.Fatal("write then read")
	}
	if err := b.SetSpeed(0); err == nil {
		t.Fatal("SetSpeed")
	}
}

func TestBus_Tx_error(t *testing.T) {
	cause := errors.New("nack")
	b := New(&fakeBus{err: cause}, "fake")
	for _, r := range [][]byte{nil, make([]byte, 1)} {
		err := b.Tx(0x76, []byte{0xD0}, r)
		if errors.Cause(err) != cause {
			t.Fatal(err)
		}
	}
	if err := b.Tx(0x76, nil, make([]byte, 1)); errors.Cause(err) != cause {
		t.Fatal(err)
	}
}

func TestBus_Close(t *testing.T) {
	f := &fakeBus{}
	b := New(f, "fake")
	released := false
	b.release = func() error {
		released = true
		return nil
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.closed || !released {
		t.Fatal("not closed")
	}
}

func TestBME680_chipID(t *testing.T) {
	f := &fakeBus{}
	f.regs[0xD0] = 0x60
	b := New(f, "fake")
	if _, err := bme680.NewI2C(b, 0x76, &bme680.DefaultOpts); !errors.Is(err, bme680.ErrChipID) {
		t.Fatal(err)
	}
	if f.addr != 0x76 {
		t.Fatalf("0x%02X", f.addr)
	}
}
