// File: cmd/idcap/output.go
// Brief: Shared console output helpers for the capture commands.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/mobiletriage/idcap/internal/capture"
)

// noDeviceNotice is what the operator sees when the presence check comes up
// empty. Printed on stdout with a zero exit: an absent device is a normal
// state for a grab-and-go tool, not a failure.
const noDeviceNotice = "No device detected. Connect a device and re-run, or check 'idcap devices'."

var warnColor = color.New(color.FgYellow)

// printResult summarizes a finished capture on the console, listing any
// degraded steps as warnings.
func printResult(out io.Writer, res *capture.Result) {
	fmt.Fprintf(out, "Capture complete: %s (%s)\n", res.Path, res.Duration.Round(time.Millisecond))
	for _, w := range res.Warnings {
		warnColor.Fprintf(out, "warning: %s\n", w)
	}
}
