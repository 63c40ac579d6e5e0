//go:build js && wasm

package main

import (
	"encoding/hex"
	"syscall/js"

	"readout/core"
	"readout/format"
	"readout/protocol"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("readoutWasm", js.ValueOf(map[string]interface{}{
		"formatReading":  js.FuncOf(formatReadingWrapper),
		"encodeKeyEvent": js.FuncOf(encodeKeyEventWrapper),
		"decodeFrames":   js.FuncOf(decodeFramesWrapper),
		"crc16":          js.FuncOf(crc16Wrapper),
		"version":        protocol.Version,
	}))

	// Keep the program running
	select {}
}

// formatReadingWrapper previews how a reading is typed
// Args: int (int32), micro (int32), places (int)
// Returns: {text: string, error: string}
func formatReadingWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeFormatResult("", "missing arguments")
	}

	v := format.FixedPoint{Int: int32(args[0].Int()), Micro: int32(args[1].Int())}
	digits, err := format.Format(v, args[2].Int())
	if err != nil {
		return makeFormatResult("", err.Error())
	}
	return makeFormatResult(digits.String(), "")
}

// encodeKeyEventWrapper builds a key event frame
// Args: seq, oid, code, pressed (bool), clock
// Returns: hex string of the complete frame
func encodeKeyEventWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return js.ValueOf("error: missing arguments")
	}

	frame := protocol.KeyEventFrame(uint8(args[0].Int()), protocol.KeyEvent{
		OID:     uint8(args[1].Int()),
		Code:    uint16(args[2].Int()),
		Pressed: args[3].Bool(),
		Clock:   uint32(args[4].Int()),
	})
	return js.ValueOf(hex.EncodeToString(frame))
}

// decodeFramesWrapper decodes every key event in a captured byte stream
// Args: hexString (string)
// Returns: {events: [{seq, oid, code, pressed, clock, us}], dropped: number, error: string}
func decodeFramesWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeDecodeResult(nil, 0, "missing hex string argument")
	}

	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return makeDecodeResult(nil, 0, "invalid hex string: "+err.Error())
	}

	reader := protocol.NewFrameReader()
	var events []interface{}
	for len(data) > 0 {
		n := reader.Write(data)
		data = data[n:]
		for {
			seq, payload, ok := reader.Next()
			if !ok {
				break
			}
			ev, err := protocol.DecodeKeyEvent(payload)
			if err != nil {
				continue
			}
			events = append(events, map[string]interface{}{
				"seq":     int(seq),
				"oid":     int(ev.OID),
				"code":    int(ev.Code),
				"pressed": ev.Pressed,
				"clock":   int(ev.Clock),
				"us":      int(core.TimerToUS(ev.Clock)),
			})
		}
		if n == 0 {
			break
		}
	}
	return makeDecodeResult(events, reader.Dropped, "")
}

// crc16Wrapper calculates CRC16 checksum
// Args: hexString (string)
// Returns: number (uint16)
func crc16Wrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}

	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

func makeFormatResult(text, errMsg string) js.Value {
	return js.ValueOf(map[string]interface{}{
		"text":  text,
		"error": errMsg,
	})
}

func makeDecodeResult(events []interface{}, dropped int, errMsg string) js.Value {
	if events == nil {
		events = []interface{}{}
	}
	return js.ValueOf(map[string]interface{}{
		"events":  events,
		"dropped": dropped,
		"error":   errMsg,
	})
}
