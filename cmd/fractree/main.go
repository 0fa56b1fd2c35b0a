// The fractree command generates fractal trees in parallel, benchmarks their
// scaling, renders them and serves them over HTTP.
package main

import (
	"context"
	"os"

	"github.com/agbru/fractree/internal/app"
)

func main() {
	ctx, stop := app.SetupSignals(context.Background())
	code := app.New(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
