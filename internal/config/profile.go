package config

import "time"

// HostProfile holds host-specific crawl settings for a single target host.
// This allows tuning politeness and authentication per host without
// changing the global configuration.
type HostProfile struct {
	// Cookie is an HTTP cookie to send when crawling this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxConcurrency overrides the global per-host concurrency cap.
	// If zero, the global cap is used.
	MaxConcurrency int `yaml:"maxConcurrency,omitempty"`

	// MinInterval overrides the global per-host minimum request spacing.
	// If zero, the global interval is used.
	MinInterval time.Duration `yaml:"minInterval,omitempty"`
}

// File represents the structure of the .tablecrawl profile file.
type File struct {
	// Hosts maps host names to their crawl profiles.
	// Keys are bare host names (e.g., "www.example.com").
	Hosts map[string]HostProfile `yaml:"hosts,omitempty"`

	// Defaults contains the default profile applied to all hosts unless
	// overridden in the host-specific profile.
	Defaults HostProfile `yaml:"defaults,omitempty"`
}

// GetHostProfile returns the profile for a specific host, merging the
// host-specific profile over the defaults.
//
// The returned Headers map is always a fresh copy. A struct copy of Defaults
// would alias its map, and merging host entries into it would leak one
// host's headers into every other host's profile.
func (f *File) GetHostProfile(host string) HostProfile {
	result := f.Defaults
	result.Headers = make(map[string]string, len(f.Defaults.Headers))
	for k, v := range f.Defaults.Headers {
		result.Headers[k] = v
	}

	if profile, ok := f.Hosts[host]; ok {
		if profile.Cookie != "" {
			result.Cookie = profile.Cookie
		}
		if profile.MaxConcurrency != 0 {
			result.MaxConcurrency = profile.MaxConcurrency
		}
		if profile.MinInterval != 0 {
			result.MinInterval = profile.MinInterval
		}
		for k, v := range profile.Headers {
			result.Headers[k] = v
		}
	}

	return result
}
