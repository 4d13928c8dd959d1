// Package config provides configuration management for tablecrawl.
//
// Configuration comes from two sources:
//   - CLI flags, which populate the flat Config struct
//   - An optional YAML profile file (.tablecrawl) with per-host settings
//     such as cookies, headers, and politeness overrides
//
// The Config struct is passed to every component at construction. There is
// no process-wide mutable configuration state.
//
// Design decision: Host profiles live in a file rather than flags because
// they are site knowledge that rarely changes between runs (cookies, header
// quirks), while flags express per-run intent (limits, output paths).
package config
