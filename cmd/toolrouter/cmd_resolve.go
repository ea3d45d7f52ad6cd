// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/catalog"
	"github.com/switchchat/toolrouter/internal/modelclient"
	"github.com/switchchat/toolrouter/internal/resolver"
	"github.com/switchchat/toolrouter/internal/resultcache"
	"github.com/switchchat/toolrouter/internal/routerconfig"
)

var (
	toolsFile string
	cacheDir  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [utterance words...]",
	Short: "Resolve one utterance against a tool catalog",
	Args:  cobra.MinimumNArgs(1),
	Run:   runResolveCommand,
}

func init() {
	resolveCmd.Flags().StringVar(&toolsFile, "tools", "", "Path to a JSON file containing a []calltypes.Tool catalog (built-in tools are always merged in)")
	resolveCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the BadgerDB result cache (empty disables caching)")
}

func runResolveCommand(_ *cobra.Command, args []string) {
	userText := strings.Join(args, " ")

	var callerTools []calltypes.Tool
	if toolsFile != "" {
		data, err := os.ReadFile(toolsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading --tools file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &callerTools); err != nil {
			fmt.Fprintf(os.Stderr, "parsing --tools file: %v\n", err)
			os.Exit(1)
		}
	}
	tools := catalog.Merge(callerTools)

	cfg, err := routerconfig.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading router config: %v\n", err)
		os.Exit(1)
	}

	// No on-device model backend is wired into this CLI build; the router
	// still resolves via Attempt 3's pure schema extraction when a model
	// call isn't available, which covers most of this command's intended
	// use as a quick schema-extractor smoke test.
	handle := modelclient.NewHandle(func(ctx context.Context) (modelclient.Model, error) {
		return nil, fmt.Errorf("no on-device model backend configured")
	})
	defer handle.Close(context.Background())

	router, err := resolver.New(handle, nil, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "constructing resolver: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var cache *resultcache.Store
	if cacheDir != "" {
		cache, err = resultcache.Open(cacheDir, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: result cache unavailable: %v\n", err)
		} else {
			defer cache.Close()
		}
	}

	turns := []calltypes.Turn{{Role: "user", Content: userText}}

	if cache != nil {
		hash := resultcache.CorpusHash(tools)
		if cached, hit, err := cache.Get(ctx, hash, userText); err == nil && hit {
			printResult(cached)
			return
		}
	}

	result, err := router.Resolve(ctx, turns, tools)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve failed: %v\n", err)
		os.Exit(1)
	}

	if cache != nil {
		hash := resultcache.CorpusHash(tools)
		if err := cache.Put(ctx, hash, userText, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to cache result: %v\n", err)
		}
	}

	printResult(result)
}

func printResult(result calltypes.Result) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
