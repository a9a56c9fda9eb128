package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.1"

// PrintUsage writes the top-level usage and subcommand list to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `codepilot - Semantic Code Search

Version: %s

USAGE:
    codepilot [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.codepilot/config/codepilot.yaml)

    -repo <path>
        Repository to operate on (default: current directory)

    -data <path>
        Override the data directory for this repository

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    ingest
        Scan a repository, chunk its files and build the search index

    search
        Search indexed code using natural language or keywords

    status
        Show the installed index and recent ingestion runs

EXAMPLES:
    # Index the current directory
    codepilot ingest

    # Index a specific repository
    codepilot -repo /path/to/repo ingest

    # Search for code
    codepilot search "jwt token validation"

    # Keyword full-text search
    codepilot search "refreshToken" -mode keyword

    # Show index status
    codepilot status

For detailed help on each command, use:
    codepilot <command> -help
`, Version)
}

// StringList is a flag.Value that collects multiple strings
type StringList []string

func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
