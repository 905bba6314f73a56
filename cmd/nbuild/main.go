// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command nbuild is the coordinator binary: one invocation runs one
// workflow loop and exits.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/frang75/nbuild/internal/log"
	"github.com/frang75/nbuild/internal/nbmetrics"
	"github.com/frang75/nbuild/internal/nbtrace"
	"github.com/frang75/nbuild/internal/workflowloop"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		networkPath  string
		workflowPath string
		forcePattern string
		exitCode     int
	)

	cmd := &cobra.Command{
		Use:           "nbuild",
		Short:         "Run one multi-host CI workflow loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runLoop(cmd.Context(), networkPath, workflowPath, forcePattern)
			exitCode = code
			return err
		},
	}
	cmd.Flags().StringVarP(&networkPath, "network", "n", "", "path to network.json (required)")
	cmd.Flags().StringVarP(&workflowPath, "workflow", "w", "", "path to workflow.json (required)")
	cmd.Flags().StringVarP(&forcePattern, "force", "j", "", "regex forcing matching jobs to re-run")
	if err := cmd.MarkFlagRequired("network"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cmd.MarkFlagRequired("workflow"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

func runLoop(ctx context.Context, networkPath, workflowPath, forcePattern string) (int, error) {
	var logBuf bytes.Buffer
	logCfg := log.FromEnv()
	logCfg.Output = io.MultiWriter(os.Stderr, &logBuf)
	logger := log.New(logCfg)

	tracerProvider, err := nbtrace.NewProvider("nbuild", "dev")
	if err != nil {
		return 1, err
	}
	defer tracerProvider.Shutdown(ctx)

	metrics, err := nbmetrics.NewCollector()
	if err != nil {
		return 1, err
	}
	defer metrics.Shutdown(ctx)

	return workflowloop.Run(ctx, workflowloop.Config{
		NetworkPath:  networkPath,
		WorkflowPath: workflowPath,
		ForcePattern: forcePattern,
		Metrics:      metrics,
		Tracer:       tracerProvider.Tracer("workflowloop"),
		Logger:       logger,
		LogBuffer:    &logBuf,
	})
}
