package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
	"github.com/MullinsLab/App-RecordStream-Pipeline/stages"
)

// pipelineFile is the on-disk pipeline description.
//
//	pipeline:
//	  - name: grep
//	    args: ['record.status == "ok"']
//	  - name: totable
type pipelineFile struct {
	Pipeline []struct {
		Name string   `yaml:"name"`
		Args []string `yaml:"args"`
	} `yaml:"pipeline"`
}

var runFile string

var runCmd = &cobra.Command{
	Use:   "run -f pipeline.yaml [input-file...]",
	Short: "Run a pipeline from a YAML description",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline(runFile)
		if err != nil {
			return err
		}

		in, cleanup, err := openInput(args)
		if err != nil {
			return err
		}
		defer cleanup()

		runner := recs.NewRunner(stages.DefaultRegistry())
		defer runner.Close()

		_, err = runner.Run(cmd.Context(), p, in, recs.WithOutput(os.Stdout))
		return err
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List available stage names",
	Run: func(*cobra.Command, []string) {
		for _, name := range stages.DefaultRegistry().Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "pipeline description file (required)")
	_ = runCmd.MarkFlagRequired("file") //nolint:errcheck
}

// loadPipeline reads a YAML description into a pipeline value.
func loadPipeline(path string) (recs.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recs.Pipeline{}, err
	}
	return parsePipeline(data)
}

func parsePipeline(data []byte) (recs.Pipeline, error) {
	var file pipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return recs.Pipeline{}, fmt.Errorf("parse pipeline description: %w", err)
	}
	if len(file.Pipeline) == 0 {
		return recs.Pipeline{}, fmt.Errorf("pipeline description names no stages")
	}

	p := recs.NewPipeline()
	for _, call := range file.Pipeline {
		args := make([]recs.Arg, len(call.Args))
		for i, a := range call.Args {
			args[i] = recs.String(a)
		}
		p = p.Call(call.Name, args...)
	}
	return p, nil
}

// openInput builds the run input: the named files concatenated, or
// standard input when no files are given.
func openInput(paths []string) (recs.Input, func(), error) {
	if len(paths) == 0 {
		return recs.FromReader(os.Stdin), func() {}, nil
	}

	files := make([]*os.File, 0, len(paths))
	readers := make([]io.Reader, 0, len(paths))
	cleanup := func() {
		for _, f := range files {
			f.Close() //nolint:errcheck
		}
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return recs.FromReader(io.MultiReader(readers...)), cleanup, nil
}
