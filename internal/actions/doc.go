// Package actions provides high-level business logic for CLI commands.
//
// Each action corresponds to a benchctl command (init, setup, run, etc.)
// and orchestrates operations across the envfile, agent, engine and
// history packages.
package actions
