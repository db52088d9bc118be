package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
ridehail - ride-hailing backend

Usage:
  ridehail [flags]

Flags:
  --config-path string   Path to the config yaml file (default "config.yaml")
  --help                 Show this message

Every config value can also be set through its environment variable,
see config/config.go for the full list.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
