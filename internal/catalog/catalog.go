// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog ships the built-in tool set every chat surface is
// expected to offer regardless of what Notion/Slack tooling a given
// deployment wires in, plus the Slack tool schemas themselves (schema
// only — no executor; §1 scopes executors out). Merge always happens by
// name: a caller-supplied tool with the same name as a built-in wins.
package catalog

import "github.com/switchchat/toolrouter/internal/calltypes"

// Merge returns callerTools first, followed by each SystemTools and then
// each SlackTools entry whose name isn't already present, so a caller tool
// wins any name clash — mirroring server.py's /chat handler, which always
// injects SYSTEM_TOOLS and then the partner schemas before invoking the
// resolver.
func Merge(callerTools []calltypes.Tool) []calltypes.Tool {
	out := append([]calltypes.Tool{}, callerTools...)
	existing := make(map[string]bool, len(out))
	for _, t := range out {
		existing[t.Name] = true
	}
	for _, candidates := range [][]calltypes.Tool{SystemTools, SlackTools} {
		for _, t := range candidates {
			if !existing[t.Name] {
				out = append(out, t)
				existing[t.Name] = true
			}
		}
	}
	return out
}

// SystemTools are the seven built-in operations every deployment of this
// assistant exposes, recovered verbatim (names, descriptions, required
// lists) from server.py's SYSTEM_TOOLS constant. PropertyOrder is spelled
// out by hand on each: these are Go literals, not JSON-decoded, so there's
// no Parameters.UnmarshalJSON pass to recover declaration order from.
var SystemTools = []calltypes.Tool{
	{
		Name:        "get_weather",
		Description: "Get current weather for a location",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"location": {Type: calltypes.ParamTypeString, Description: "City name or location"},
			},
			PropertyOrder: []string{"location"},
			Required:      []string{"location"},
		},
	},
	{
		Name:        "set_alarm",
		Description: "Set an alarm for a specific time",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"hour":   {Type: calltypes.ParamTypeInteger, Description: "Hour (0-23)"},
				"minute": {Type: calltypes.ParamTypeInteger, Description: "Minute (0-59)"},
			},
			PropertyOrder: []string{"hour", "minute"},
			Required:      []string{"hour", "minute"},
		},
	},
	{
		Name:        "set_timer",
		Description: "Set a countdown timer",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"minutes": {Type: calltypes.ParamTypeInteger, Description: "Duration in minutes"},
			},
			PropertyOrder: []string{"minutes"},
			Required:      []string{"minutes"},
		},
	},
	{
		Name:        "play_music",
		Description: "Play a song or music genre",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"song": {Type: calltypes.ParamTypeString, Description: "Song title, artist, or genre"},
			},
			PropertyOrder: []string{"song"},
			Required:      []string{"song"},
		},
	},
	{
		Name:        "create_reminder",
		Description: "Create a reminder for a task",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"title": {Type: calltypes.ParamTypeString, Description: "Reminder content/title"},
				"time":  {Type: calltypes.ParamTypeString, Description: "Time string (e.g. '5 PM', 'tomorrow')"},
			},
			PropertyOrder: []string{"title", "time"},
			Required:      []string{"title", "time"},
		},
	},
	{
		Name:        "search_contacts",
		Description: "Search for a contact",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"query": {Type: calltypes.ParamTypeString, Description: "Name to search for"},
			},
			PropertyOrder: []string{"query"},
			Required:      []string{"query"},
		},
	},
	{
		Name:        "send_message",
		Description: "Send a text message",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"recipient": {Type: calltypes.ParamTypeString, Description: "Name or phone number"},
				"message":   {Type: calltypes.ParamTypeString, Description: "Message content"},
			},
			PropertyOrder: []string{"recipient", "message"},
			Required:      []string{"recipient", "message"},
		},
	},
}

// SlackTools are the Slack MCP tool schemas, schema-only, recovered from
// slack_tools/schemas.py. No executor is attached — callers that want live
// Slack behavior plug in their own via a ToolExecutor (see executor.go).
var SlackTools = []calltypes.Tool{
	{
		Name:        "slack_post_message",
		Description: "Post a message to a Slack channel or thread.",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"channel":   {Type: calltypes.ParamTypeString, Description: "Slack channel ID (e.g., C01234567) or @user"},
				"text":      {Type: calltypes.ParamTypeString, Description: "Fallback plain-text message"},
				"thread_ts": {Type: calltypes.ParamTypeString, Description: "Timestamp of parent message to post in a thread"},
			},
			PropertyOrder: []string{"channel", "text", "thread_ts"},
			Required:      []string{"channel"},
		},
	},
	{
		Name:        "slack_list_conversations",
		Description: "List Slack conversations (channels, IMs).",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"types": {Type: calltypes.ParamTypeString, Description: "Comma-separated conversation types (public_channel,private_channel,im,mpim)"},
				"limit": {Type: calltypes.ParamTypeInteger, Description: "Maximum results to return"},
			},
			PropertyOrder: []string{"types", "limit"},
		},
	},
	{
		Name:        "slack_get_history",
		Description: "Get recent message history for a channel.",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"channel": {Type: calltypes.ParamTypeString},
				"limit":   {Type: calltypes.ParamTypeInteger},
			},
			PropertyOrder: []string{"channel", "limit"},
			Required:      []string{"channel"},
		},
	},
	{
		Name:        "slack_upload_file",
		Description: "Upload a file to channels. The caller is expected to resolve the file to a local path before invoking the executor.",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"file_path":       {Type: calltypes.ParamTypeString, Description: "Local path on server or pre-fetched temporary file path"},
				"filename":        {Type: calltypes.ParamTypeString},
				"initial_comment": {Type: calltypes.ParamTypeString},
			},
			PropertyOrder: []string{"file_path", "filename", "initial_comment"},
			Required:      []string{"file_path"},
		},
	},
}
