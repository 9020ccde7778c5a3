package main

import (
	"flag"
	"os"

	"github.com/emberwell/wellness-backend/wellnessservice"
)

func main() {
	// Optional build-target flag override (local | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud)")
	flag.Parse()
	if *buildTarget != "" {
		_ = os.Setenv("WELLNESS_BACKEND_BUILD_TARGET", *buildTarget)
	}

	if err := wellnessservice.Run(); err != nil {
		os.Exit(1)
	}
}
