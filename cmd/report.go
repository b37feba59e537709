package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/water-atlas/internal/failure"
)

// diagnostic renders the one-line message shown for a failed command.
func diagnostic(err error) string {
	switch failure.KindOf(err) {
	case failure.Network:
		return fmt.Sprintf("Error downloading the file: %v", err)
	case failure.NotFound:
		return fmt.Sprintf("Error: %v. Make sure you are in the project root directory.", err)
	case failure.Archive:
		return fmt.Sprintf("Error reading the archive: %v", err)
	case failure.Parse:
		return fmt.Sprintf("Error parsing the data: %v", err)
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}

// reportError prints the diagnostic and logs the full error chain at debug.
func reportError(w io.Writer, err error) {
	zap.L().Debug("command failed",
		zap.String("kind", failure.KindOf(err).String()),
		zap.String("trace", eris.ToString(err, true)),
	)
	_, _ = fmt.Fprintln(w, diagnostic(err))
}
