package main

import (
	"log"
	"os"
	"strings"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if strings.EqualFold(os.Getenv("SCORE_OMR_LOG_LEVEL"), "debug") {
		log.Printf("score-omr v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
