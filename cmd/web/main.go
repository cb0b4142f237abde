// Command web serves the monthly dataset from the configured store over HTTP.
package main

import (
	"flag"
	"fmt"
	"os"

	"bdexports/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	baseDir := flag.String("base", "", "base directory holding data/ and logs/")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	rt, err := app.Bootstrap(*configFile, *baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		rt.Config.Server.Port = *port
	}

	a, err := app.NewApplication(rt.Config, rt.Logger, rt.Telemetry)
	if err != nil {
		rt.Logger.Error("Failed to initialise application", "error", err)
		os.Exit(1)
	}
	if err := a.Run(); err != nil {
		rt.Logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}
