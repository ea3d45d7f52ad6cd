// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command toolrouter is a local CLI for driving the hybrid function-call
// router without standing up the HTTP service: useful for one-off checks
// against a tool catalog file during development.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/switchchat/toolrouter/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "toolrouter",
	Short: "Resolve an utterance to tool calls using the hybrid function-call router",
}

func main() {
	shutdownTracing, err := telemetry.SetupTracing(os.Stderr, "toolrouter")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	rootCmd.AddCommand(resolveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
