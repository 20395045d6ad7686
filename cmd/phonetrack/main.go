// Command phonetrack measures pitch and formant trajectories in WAV
// recordings, reports their trends and draws them.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/RyanBlaney/sonido-phonetics/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error(err, "phonetrack failed")
		stop()
		os.Exit(1)
	}
}
