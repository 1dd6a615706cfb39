package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/score-omr/internal/omr"
	"github.com/ironsheep/score-omr/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "score-omr",
		Short: "Optical music recognition for printed single-voice scores",
		Long: `score-omr reads the notes of a printed single-voice score from a scan or
phone photo. It runs as a one-shot command, as an MCP server over stdio
or as an HTTP API.

Environment variables:
  SCORE_OMR_LOG_LEVEL=debug   Enable debug logging
  SCORE_OMR_NATIVE=off        Start with the OpenCV backend disabled
  SCORE_OMR_MAX_DIM=1600      Longest edge before recognition downsamples`,
		SilenceUsage: true,
	}
	root.AddCommand(newRecognizeCmd(), newServeCmd(), newHTTPCmd(), newVersionCmd())
	return root
}

// newService wires the process runtime, the processor and the image cache.
func newService() (*service.Service, error) {
	proc, err := omr.NewProcessor(omr.DefaultRuntime())
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}
	return service.New(proc, nil), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "score-omr %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			if v := omr.NativeVersion(); v != "" {
				fmt.Fprintf(out, "  OpenCV:     %s\n", v)
			}
		},
	}
}
