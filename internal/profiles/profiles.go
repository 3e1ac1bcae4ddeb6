// Package profiles resolves named scan profiles: preset tool lists and
// option bundles that requests can reference by name.
package profiles

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"vulnhawk/pkg/scan"
)

// Profile is one named scan preset.
type Profile struct {
	Tools       []string                    `yaml:"tools" mapstructure:"tools"`
	Timeout     time.Duration               `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Parallelism int                         `yaml:"parallelism,omitempty" mapstructure:"parallelism"`
	ToolOptions map[string]scan.ToolOptions `yaml:"tool_options,omitempty" mapstructure:"tool_options"`
}

// builtin profiles are always available; a profiles file can override them.
var builtin = map[string]Profile{
	"quick": {
		Tools:   []string{"nuclei", "zap"},
		Timeout: 10 * time.Minute,
	},
	"web": {
		Tools:   []string{"nikto", "zap", "wapiti"},
		Timeout: 30 * time.Minute,
	},
	"full": {
		Tools:       []string{"nikto", "zap", "wapiti", "nuclei", "sqlmap"},
		Timeout:     45 * time.Minute,
		Parallelism: 2,
	},
	"injection": {
		Tools:   []string{"wapiti", "sqlmap"},
		Timeout: 30 * time.Minute,
		ToolOptions: map[string]scan.ToolOptions{
			"wapiti": {Modules: []string{"sql", "xss", "exec"}},
		},
	},
}

// Store resolves profile names to presets.
type Store struct {
	profiles map[string]Profile
}

// Load reads profiles from the given YAML file, layered over the builtins.
// An empty path yields the builtins alone.
func Load(path string) (*Store, error) {
	merged := make(map[string]Profile, len(builtin))
	for name, p := range builtin {
		merged[name] = p
	}

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read profiles file: %w", err)
		}

		var fromFile map[string]Profile
		if err := v.UnmarshalKey("profiles", &fromFile); err != nil {
			return nil, fmt.Errorf("failed to decode profiles file: %w", err)
		}
		for name, p := range fromFile {
			merged[name] = p
		}
	}

	return &Store{profiles: merged}, nil
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// Names lists the available profile names.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	return names
}

// Apply fills the unset parts of a request from the profile it names. The
// request's own values always win.
func (s *Store) Apply(req *scan.Request) error {
	if req.Profile == "" {
		return nil
	}
	p, err := s.Get(req.Profile)
	if err != nil {
		return err
	}

	if len(req.Tools) == 0 {
		req.Tools = p.Tools
	}
	if req.Timeout == 0 {
		req.Timeout = p.Timeout
	}
	if req.Parallelism == 0 {
		req.Parallelism = p.Parallelism
	}
	if req.ToolOptions == nil {
		req.ToolOptions = p.ToolOptions
	}
	return nil
}
