//go:build rp2040 || rp2350

package main

import (
	"machine"

	"readout/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART0 on GP0 (TX) / GP1 (RX)
// at 115200 baud
func InitDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	core.DebugPrintln("=== readout debug UART ===")
}
