// Package config manages benchctl workspace configuration.
//
// A workspace is a directory initialized with 'benchctl init'. Its settings
// live in a .benchctl.json file at the workspace root and cover the agent
// repository to check out, the batch runner binary to invoke, the credentials
// file location, and the defaults applied to batch runs.
package config
