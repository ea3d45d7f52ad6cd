// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routerconfig loads the tunables the resolver's design notes (§9)
// call out as knobs: the schema-override threshold pair, the tool-relevance
// cutoff, the synonym map, the strong-genre set, and the stop-word list.
// Values ship embedded as YAML defaults; a deployment can override any
// subset without touching code, following the embed-default-plus-override
// pattern in services/trace/config/prefilter_config.go.
package routerconfig

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// Config holds every tunable the resolver reads from outside its own code.
// None of these change the resolver's control flow — only the thresholds
// and word lists it consults along the way.
type Config struct {
	// SchemaOverrideModelRelevanceMax is the m_rel upper bound in §4.H's
	// schema-override rule. Below this and above
	// SchemaOverrideSchemaRelevanceMin, the model's tool choice is
	// discarded in favor of the schema's pick. Preserved exactly as
	// specified — an asymmetric, untuned knob per §9's open question.
	SchemaOverrideModelRelevanceMax float64 `yaml:"schema_override_model_relevance_max"`

	// SchemaOverrideSchemaRelevanceMin is the s_rel lower bound in the
	// same rule.
	SchemaOverrideSchemaRelevanceMin float64 `yaml:"schema_override_schema_relevance_min"`

	// ToolRelevanceCutoff is the minimum tool_relevance find_best_tool
	// requires before returning a winner (§4.D).
	ToolRelevanceCutoff float64 `yaml:"tool_relevance_cutoff"`

	// ConjunctionSplitMinPartLen is the length a conjunction-split part's
	// trimmed text must exceed to be kept (§4.I); a part of exactly this
	// length is dropped.
	ConjunctionSplitMinPartLen int `yaml:"conjunction_split_min_part_len"`

	// Synonyms holds the query-word expansion map of §4.D as loaded from
	// YAML. Nothing reads it: tool_relevance expands queries with
	// matcher.Synonyms, so overriding this field does not change matching.
	Synonyms map[string]string `yaml:"synonyms"`

	// StrongGenres is the play_music post-processing set (recovered from
	// original_source's _post_process_args — see SPEC_FULL.md §4): a
	// "<genre> music" song value is trimmed to "<genre>" when the prefix
	// is in this set.
	StrongGenres []string `yaml:"strong_genres"`

	// StopWords is an extra stop-word list loaded from YAML, empty by
	// default. Nothing reads it: internal/textutil.StopWords is the only
	// stop-word list the resolver consults.
	StopWords []string `yaml:"stop_words"`
}

var (
	mu       sync.RWMutex
	once     sync.Once
	cached   *Config
	loadErr  error
)

// Default returns the cached config, parsing the embedded defaults on
// first call. Safe for concurrent use.
func Default() (*Config, error) {
	mu.RLock()
	if cached != nil || loadErr != nil {
		cfg, err := cached, loadErr
		mu.RUnlock()
		return cfg, err
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if cached != nil || loadErr != nil {
		return cached, loadErr
	}
	once.Do(func() {
		cached, loadErr = Load(defaultConfigYAML)
	})
	return cached, loadErr
}

// Reset clears the cached default config so tests can reload with
// different data.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = nil
	loadErr = nil
	once = sync.Once{}
}

// Load parses data as a Config, applying fallback values for any field the
// YAML leaves at its zero value.
func Load(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("routerconfig: empty YAML data")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("routerconfig: parsing YAML: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.SchemaOverrideModelRelevanceMax == 0 {
		cfg.SchemaOverrideModelRelevanceMax = 0.01
	}
	if cfg.SchemaOverrideSchemaRelevanceMin == 0 {
		cfg.SchemaOverrideSchemaRelevanceMin = 0.15
	}
	if cfg.ToolRelevanceCutoff == 0 {
		cfg.ToolRelevanceCutoff = 0.05
	}
	if cfg.ConjunctionSplitMinPartLen == 0 {
		cfg.ConjunctionSplitMinPartLen = 5
	}
	if cfg.Synonyms == nil {
		cfg.Synonyms = map[string]string{
			"text": "message", "mail": "message", "wake": "alarm",
			"tune": "music", "track": "music", "song": "music",
		}
	}
	if len(cfg.StrongGenres) == 0 {
		cfg.StrongGenres = []string{
			"jazz", "rock", "pop", "metal", "country", "rap", "blues",
			"soul", "funk", "disco", "techno", "house", "lo-fi",
			"hip hop", "hip-hop",
		}
	}
}
