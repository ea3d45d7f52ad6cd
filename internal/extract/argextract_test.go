// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"encoding/json"
	"testing"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

func alarmTool() calltypes.Tool {
	return calltypes.Tool{
		Name:        "set_alarm",
		Description: "Set an alarm for a specific time",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"hour":   {Type: calltypes.ParamTypeInteger, Description: "Hour (0-23)"},
				"minute": {Type: calltypes.ParamTypeInteger, Description: "Minute (0-59)"},
			},
			Required: []string{"hour", "minute"},
		},
	}
}

func reminderTool() calltypes.Tool {
	return calltypes.Tool{
		Name:        "create_reminder",
		Description: "Create a reminder for a task",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"title": {Type: calltypes.ParamTypeString, Description: "Reminder content/title"},
				"time":  {Type: calltypes.ParamTypeString, Description: "Time string (e.g. '5 PM', 'tomorrow')"},
			},
			Required: []string{"title", "time"},
		},
	}
}

func sendMessageTool() calltypes.Tool {
	return calltypes.Tool{
		Name:        "send_message",
		Description: "Send a text message",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"recipient": {Type: calltypes.ParamTypeString, Description: "Name or phone number"},
				"message":   {Type: calltypes.ParamTypeString, Description: "Message content"},
			},
			Required: []string{"recipient", "message"},
		},
	}
}

func musicTool() calltypes.Tool {
	return calltypes.Tool{
		Name:        "play_music",
		Description: "Play a song or music genre",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"song": {Type: calltypes.ParamTypeString, Description: "Song title, artist, or genre"},
			},
			Required: []string{"song"},
		},
	}
}

func weatherTool() calltypes.Tool {
	return calltypes.Tool{
		Name:        "get_weather",
		Description: "Get current weather for a location",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"location": {Type: calltypes.ParamTypeString, Description: "City name or location"},
			},
			Required: []string{"location"},
		},
	}
}

// S2: "Set an alarm for 7:30 AM" should fill hour=7, minute=30 from the
// colon-separated integer pair.
func TestFromSchemaColonPairAssignsIntegers(t *testing.T) {
	call, ok := FromSchema("Set an alarm for 7:30 AM", alarmTool(), nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["hour"].I != 7 || call.Arguments["minute"].I != 30 {
		t.Fatalf("expected hour=7 minute=30, got %+v", call.Arguments)
	}
}

// A caller-supplied tool whose integer properties are declared
// minute-before-hour must fill in that same order: phase 1 assigns numbers
// to parameters in schema-declaration order, not alphabetical order.
func TestFromSchemaIntegerPhaseUsesJSONDeclarationOrder(t *testing.T) {
	raw := `{
		"name": "set_alarm",
		"parameters": {
			"properties": {
				"minute": {"type": "integer"},
				"hour": {"type": "integer"}
			},
			"required": ["minute", "hour"]
		}
	}`
	var tool calltypes.Tool
	if err := json.Unmarshal([]byte(raw), &tool); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	call, ok := FromSchema("Set alarm 7:30", tool, nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["minute"].I != 7 || call.Arguments["hour"].I != 30 {
		t.Fatalf("expected minute=7 hour=30 (declaration order), got %+v", call.Arguments)
	}
}

// "-7" is not a bare digit token, so phase 1 collects only 30: hour takes it
// and minute, with no number left, gets 0.
func TestFromSchemaIntegerSkipsSignedToken(t *testing.T) {
	call, ok := FromSchema("Set an alarm for -7 and 30", alarmTool(), nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["hour"].I != 30 || call.Arguments["minute"].I != 0 {
		t.Fatalf("expected hour=30 minute=0, got %+v", call.Arguments)
	}
}

// S1: location extraction via the " in " preposition.
func TestFromSchemaLocationExtraction(t *testing.T) {
	call, ok := FromSchema("What is the weather in San Francisco?", weatherTool(), nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["location"].S != "San Francisco" {
		t.Fatalf("expected location='San Francisco', got %+v", call.Arguments["location"])
	}
}

// Reminder title+time category extraction.
func TestFromSchemaTimeAndRemainingContent(t *testing.T) {
	call, ok := FromSchema("Remind Tom to buy milk at 5 PM", reminderTool(), nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["time"].S != "5 PM" {
		t.Fatalf("expected time='5 PM', got %+v", call.Arguments["time"])
	}
	if call.Arguments["title"].S == "" {
		t.Fatalf("expected non-empty title, got %+v", call.Arguments["title"])
	}
}

// send_message content category via " saying ".
func TestFromSchemaContentMarker(t *testing.T) {
	call, ok := FromSchema("send him a message saying hello", sendMessageTool(), []string{"Tom"})
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["message"].S != "hello" {
		t.Fatalf("expected message='hello', got %+v", call.Arguments["message"])
	}
	if call.Arguments["recipient"].S != "Tom" {
		t.Fatalf("expected recipient='Tom' from extraNouns, got %+v", call.Arguments["recipient"])
	}
}

func TestFromSchemaMissingRequiredReturnsFalse(t *testing.T) {
	_, ok := FromSchema("do something vague", sendMessageTool(), nil)
	if ok {
		t.Fatal("expected missing-required to fail")
	}
}

// S3: "Play some jazz music" should extract "jazz music" as the remaining
// text (genre-suffix trimming is a resolver-level post-process step, not
// this package's concern).
func TestFromSchemaRemainingTextFillsUnfilledString(t *testing.T) {
	call, ok := FromSchema("Play some jazz music", musicTool(), nil)
	if !ok {
		t.Fatal("expected a valid call")
	}
	if call.Arguments["song"].S == "" {
		t.Fatal("expected non-empty song argument")
	}
}

func TestFromSchemaBlacklistedParamNeverFilledByRemainder(t *testing.T) {
	tool := calltypes.Tool{
		Name: "slack_post_message",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"channel": {Type: calltypes.ParamTypeString},
			},
			Required: []string{},
		},
	}
	call, ok := FromSchema("post something to general", tool, nil)
	if !ok {
		t.Fatal("expected a valid call (no required params)")
	}
	if call.Arguments["channel"].S != "" {
		t.Errorf("expected blacklisted param 'channel' to stay unfilled by remainder, got %+v", call.Arguments["channel"])
	}
}
