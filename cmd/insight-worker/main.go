package main

import (
	"os"

	"github.com/emberwell/wellness-backend/insightworker"
)

func main() {
	if err := insightworker.Run(); err != nil {
		os.Exit(1)
	}
}
