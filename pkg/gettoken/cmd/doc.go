// Package cmd implements the gettoken command tree.
//
// Running gettoken without a subcommand acquires one access token for the
// active profile: silently from the first cached account when possible and
// interactively otherwise. The other subcommands manage cached accounts,
// inspect tokens and edit the configuration file.
package cmd
