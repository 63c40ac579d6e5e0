package main

import (
	"fmt"
	"io"

	"readout/format"
	"readout/host/config"
)

// FormatCmd implements the 'format' command.
type FormatCmd struct {
	Reading string `arg:"" help:"Decimal reading, e.g. 12.345 (use -- before negative values)"`
	Places  int    `short:"p" help:"Decimal places to keep (0-6)" default:"2"`
}

func (f *FormatCmd) Run(_ *CLI, out io.Writer) error {
	v, err := config.ParseReading(f.Reading)
	if err != nil {
		return err
	}
	digits, err := format.Format(v, f.Places)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, digits.String())
	return err
}
