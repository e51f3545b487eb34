package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// @title Transcript Clearance API
// @version 1.0.0
// @description Transcript request review by Library, Bursar and Academic offices.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
