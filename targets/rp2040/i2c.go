//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers"
)

// accelI2CFrequency is the ADXL345's fast-mode limit
const accelI2CFrequency = 400 * machine.KHz

// configureAccelBus sets up I2C0 on the default pins (SDA=GP4, SCL=GP5)
// and returns it as a driver bus
func configureAccelBus() (drivers.I2C, error) {
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: accelI2CFrequency,
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
	})
	if err != nil {
		return nil, err
	}
	return i2c, nil
}
