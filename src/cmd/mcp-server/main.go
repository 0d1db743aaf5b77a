// Package main provides the MCP server entry point for the backpack.
// It exposes the earthquake search over stdio.
package main

import (
	"fmt"
	"os"

	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/mcp"
	"sasquatch-backpack/src/service"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol
	svc := service.New(cfg, nil, service.WithLogger(logger.NewSilentLogger()))

	if err := mcp.NewServer(svc).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
