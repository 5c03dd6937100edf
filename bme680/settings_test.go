// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import "testing"

var allOversampling = []Oversampling{Off, O1x, O2x, O4x, O8x, O16x}

func TestDev_SetOversampling(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	for i, o := range allOversampling {
		code := uint8(i)
		if err := d.SetTemperatureOversampling(o); err != nil {
			t.Fatal(err)
		}
		if got := d.TemperatureOversampling(); got != o {
			t.Fatalf("temperature %s != %s", got, o)
		}
		if got := fieldOSRSTemp.get(b.regs[regCtrlMeas]); got != code {
			t.Fatalf("temperature code %d != %d", got, code)
		}
		if err := d.SetPressureOversampling(o); err != nil {
			t.Fatal(err)
		}
		if got := d.PressureOversampling(); got != o {
			t.Fatalf("pressure %s != %s", got, o)
		}
		if got := fieldOSRSPress.get(b.regs[regCtrlMeas]); got != code {
			t.Fatalf("pressure code %d != %d", got, code)
		}
		if err := d.SetHumidityOversampling(o); err != nil {
			t.Fatal(err)
		}
		if got := d.HumidityOversampling(); got != o {
			t.Fatalf("humidity %s != %s", got, o)
		}
		if got := b.regs[regCtrlHum]; got != code {
			t.Fatalf("humidity code %d != %d", got, code)
		}
	}
	// The mode bits are left untouched.
	if got := fieldMode.get(b.regs[regCtrlMeas]); got != 0 {
		t.Fatalf("mode %d", got)
	}
	if err := d.SetTemperatureOversampling(Oversampling(3)); err == nil {
		t.Fatal("invalid oversampling")
	}
	if got := d.TemperatureOversampling(); got != O16x {
		t.Fatalf("shadow must not change on error: %s", got)
	}
}

func TestDev_SetOversampling_busError(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	b.failReg = regCtrlMeas
	if err := d.SetTemperatureOversampling(O8x); err != errBus {
		t.Fatal(err)
	}
	if got := d.TemperatureOversampling(); got != O1x {
		t.Fatalf("shadow must not change on error: %s", got)
	}
}

func TestDev_SetFilter(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	b.regs[regConfig] = 0xE3
	for i, f := range []Filter{NoFilter, F1, F3, F7, F15, F31, F63, F127} {
		if err := d.SetFilter(f); err != nil {
			t.Fatal(err)
		}
		if got := d.Filter(); got != f {
			t.Fatalf("%s != %s", got, f)
		}
		if want := 0xE3 | uint8(i)<<2; b.regs[regConfig] != want {
			t.Fatalf("register 0x%02X != 0x%02X", b.regs[regConfig], want)
		}
	}
	if err := d.SetFilter(Filter(2)); err == nil {
		t.Fatal("invalid filter")
	}
}

func TestDev_SetHeaterEnabled(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	if err := d.SetHeaterEnabled(false); err != nil {
		t.Fatal(err)
	}
	if d.HeaterEnabled() || b.regs[regCtrlGas0] != 0x08 {
		t.Fatalf("heat_off should be set: 0x%02X", b.regs[regCtrlGas0])
	}
	if err := d.SetHeaterEnabled(true); err != nil {
		t.Fatal(err)
	}
	if !d.HeaterEnabled() || b.regs[regCtrlGas0] != 0 {
		t.Fatalf("heat_off should be cleared: 0x%02X", b.regs[regCtrlGas0])
	}
}

func TestDev_SetGasMeasurementEnabled(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	if err := d.SetHeaterProfile(Profile7); err != nil {
		t.Fatal(err)
	}
	if err := d.SetGasMeasurementEnabled(false); err != nil {
		t.Fatal(err)
	}
	if d.GasMeasurementEnabled() || b.regs[regCtrlGas1] != 0x07 {
		t.Fatalf("run_gas should be cleared: 0x%02X", b.regs[regCtrlGas1])
	}
	if err := d.SetGasMeasurementEnabled(true); err != nil {
		t.Fatal(err)
	}
	if !d.GasMeasurementEnabled() || b.regs[regCtrlGas1] != 0x17 {
		t.Fatalf("run_gas should be set: 0x%02X", b.regs[regCtrlGas1])
	}
}

func TestDev_SetHeaterProfile(t *testing.T) {
	noSleep(t)
	b := newRegisterBus()
	d := newTestDev(t, b)
	for h := Profile0; h <= Profile9; h++ {
		if err := d.SetHeaterProfile(h); err != nil {
			t.Fatal(err)
		}
		if d.HeaterProfile() != h || fieldNbConv.get(b.regs[regCtrlGas1]) != uint8(h) {
			t.Fatalf("%s: 0x%02X", h, b.regs[regCtrlGas1])
		}
	}
	if err := d.SetHeaterProfile(HeaterProfile(10)); err == nil {
		t.Fatal("invalid profile")
	}
	if d.HeaterProfile() != Profile9 {
		t.Fatal(d.HeaterProfile())
	}
}

func TestDecode(t *testing.T) {
	for o, code := range oversamplingCodes {
		if got, ok := decode(oversamplingCodes, code); !ok || got != o {
			t.Fatalf("%d: %s", code, got)
		}
	}
	if _, ok := decode(filterCodes, 8); ok {
		t.Fatal("8 is not a filter code")
	}
	if got, ok := decode(powerModeCodes, 1); !ok || got != Forced {
		t.Fatal(got)
	}
}

func TestStrings(t *testing.T) {
	data := []struct {
		s    interface{ String() string }
		want string
	}{
		{Sleep, "Sleep"},
		{Forced, "Forced"},
		{PowerMode(7), "PowerMode(7)"},
		{Off, "Off"},
		{O16x, "16x"},
		{Oversampling(3), "Oversampling(3)"},
		{NoFilter, "NoFilter"},
		{F127, "F127"},
		{Filter(2), "Filter(2)"},
		{Profile3, "Profile3"},
	}
	for i, line := range data {
		if got := line.s.String(); got != line.want {
			t.Fatalf("#%d: %q != %q", i, got, line.want)
		}
	}
}
