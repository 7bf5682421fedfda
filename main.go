package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/perimetra/fwapi/cmd"
)

const defaultConfigFile = "/etc/fwapi/fwapi.hcl"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)
		configFile := serveFlags.String("config", "", "Configuration file")
		serveFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		listen := serveFlags.String("listen", "", "Override listen address")
		serveFlags.Parse(os.Args[2:])

		// Without -c, use the system config if present, otherwise the
		// built-in standalone defaults.
		if *configFile == "" {
			if _, err := os.Stat(defaultConfigFile); err == nil {
				*configFile = defaultConfigFile
			}
		}

		if err := cmd.RunServe(*configFile, *listen); err != nil {
			fmt.Fprintf(os.Stderr, "Serve failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		configFile := defaultConfigFile
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(configFile, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		cmd.RunVersion()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`fwapi - firewall rule management API

Usage:
  fwapi <command> [options]

Commands:
  serve     Run the API server
            Options: --config (-c) <file>, --listen <addr>
  check     Validate a configuration file
            Options: --verbose (-v)
  version   Print version information

Examples:
  fwapi serve                       # Standalone in-memory service
  fwapi serve -c /etc/fwapi/fwapi.hcl
  fwapi check -v /etc/fwapi/fwapi.hcl
`)
}
