// Package config loads the gettoken YAML configuration, layers environment
// variables and command-line overrides on top, and resolves the immutable
// client configuration handed to the token acquisition procedure.
package config
