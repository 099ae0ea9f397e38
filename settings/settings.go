// Package settings holds the persistent profile configuration consumed by
// the surfaces around the detection engine. The engine itself never reads
// settings; detection behaviour is fixed by design.
package settings

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the profile configuration.
type Settings struct {
	// Profile names the active configuration profile.
	Profile string `yaml:"profile"`

	// DisabledTools lists tool names whose surfaces are not registered.
	DisabledTools []string `yaml:"disabled_tools"`

	// AlwaysIncludeSources makes every answered question also run source
	// extraction, regardless of what the caller asked for.
	AlwaysIncludeSources bool `yaml:"always_include_sources"`
}

// Default returns the settings used when no file is configured.
func Default() *Settings {
	s := &Settings{Profile: "default"}
	s.applyEnv()
	return s
}

// Load reads a YAML settings file and applies environment overrides on top.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if s.Profile == "" {
		s.Profile = "default"
	}
	s.applyEnv()
	return s, nil
}

// Environment overrides, highest precedence:
//
//	CHATWATCH_PROFILE
//	CHATWATCH_DISABLED_TOOLS   comma-separated tool names
//	CHATWATCH_ALWAYS_INCLUDE_SOURCES   true/1/yes
func (s *Settings) applyEnv() {
	if v := os.Getenv("CHATWATCH_PROFILE"); v != "" {
		s.Profile = v
	}
	if v := os.Getenv("CHATWATCH_DISABLED_TOOLS"); v != "" {
		s.DisabledTools = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				s.DisabledTools = append(s.DisabledTools, name)
			}
		}
	}
	if v := os.Getenv("CHATWATCH_ALWAYS_INCLUDE_SOURCES"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			s.AlwaysIncludeSources = true
		case "0", "false", "no":
			s.AlwaysIncludeSources = false
		}
	}
}

// ToolEnabled reports whether a tool surface should be registered.
func (s *Settings) ToolEnabled(name string) bool {
	for _, d := range s.DisabledTools {
		if strings.EqualFold(d, name) {
			return false
		}
	}
	return true
}
