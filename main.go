// Package main is the entry point for the restream CLI, which computes
// racetime.gg head-to-head statistics and restream slide layouts.
package main

import "github.com/pable/go-restream-stats/cmd"

func main() {
	cmd.Execute()
}
