// Package main is the single-binary entrypoint for Stillpoint.
package main

import "github.com/stillpoint-app/stillpoint/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
