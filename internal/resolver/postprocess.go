// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"strings"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/routerconfig"
)

// postProcess applies the one tool-specific cleanup rule recovered from the
// reference implementation's _post_process_args: a play_music call whose
// song argument is "<genre> music" is trimmed to just "<genre>" when genre
// is one of the fixed strong genres, because the model otherwise passes the
// whole noun phrase straight through (e.g. "play some jazz music" yields
// song="jazz music" instead of song="jazz"). Every other tool and argument
// passes through untouched.
func postProcess(calls []calltypes.Call, cfg *routerconfig.Config) []calltypes.Call {
	if len(cfg.StrongGenres) == 0 {
		return calls
	}
	strong := make(map[string]bool, len(cfg.StrongGenres))
	for _, g := range cfg.StrongGenres {
		strong[g] = true
	}

	out := make([]calltypes.Call, len(calls))
	for i, c := range calls {
		if c.Name != "play_music" {
			out[i] = c
			continue
		}
		song, ok := c.Arguments["song"]
		if !ok || song.Kind != calltypes.KindString {
			out[i] = c
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(song.S))
		const suffix = " music"
		if !strings.HasSuffix(lower, suffix) {
			out[i] = c
			continue
		}
		genre := strings.TrimSpace(strings.TrimSuffix(lower, suffix))
		if !strong[genre] {
			out[i] = c
			continue
		}
		args := make(map[string]calltypes.Value, len(c.Arguments))
		for k, v := range c.Arguments {
			args[k] = v
		}
		args["song"] = calltypes.StringValue(genre)
		out[i] = calltypes.Call{Name: c.Name, Arguments: args}
	}
	return out
}
