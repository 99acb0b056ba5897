package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abandonsearch/place-rater/internal/config"
	"github.com/abandonsearch/place-rater/internal/ledger"
	"github.com/abandonsearch/place-rater/internal/places"
)

var statusFormat string

// runStatus describes saved progress without changing it.
type runStatus struct {
	Input     string `json:"input" yaml:"input"`
	Places    int    `json:"places" yaml:"places"`
	Output    string `json:"output" yaml:"output"`
	Saved     int    `json:"saved" yaml:"saved"`
	Artifacts struct {
		Driver  string `json:"driver" yaml:"driver"`
		Indices []int  `json:"indices" yaml:"indices,flow"`
		Max     int    `json:"max" yaml:"max"`
	} `json:"artifacts" yaml:"artifacts"`
	// NextStart is the index the next run begins at after replaying
	// artifacts past the saved prefix.
	NextStart int  `json:"next_start" yaml:"next_start"`
	Complete  bool `json:"complete" yaml:"complete"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show saved progress and the index the next run starts at",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPathFlags()
		if err := cfg.Validate("status"); err != nil {
			return err
		}
		st, err := collectStatus(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return writeStatus(cmd.OutOrStdout(), st, statusFormat)
	},
}

func collectStatus(ctx context.Context, c *config.Config) (*runStatus, error) {
	input, err := places.Load(c.Input)
	if err != nil {
		return nil, err
	}

	indices, err := artifactIndices(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "list artifacts")
	}

	st := &runStatus{
		Input:  c.Input,
		Places: len(input),
		Output: c.Output,
		Saved:  ledger.Load(c.Output).Len(),
	}
	st.Artifacts.Driver = c.Artifacts.Driver
	st.Artifacts.Indices = indices
	if st.Artifacts.Indices == nil {
		st.Artifacts.Indices = []int{}
	}
	if n := len(indices); n > 0 {
		st.Artifacts.Max = indices[n-1]
	}

	done := max(st.Saved, st.Artifacts.Max)
	st.NextStart = done + 1
	st.Complete = done >= st.Places
	return st, nil
}

func writeStatus(w io.Writer, st *runStatus, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(st), "encode status")
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return eris.Wrap(err, "encode status")
		}
		return eris.Wrap(enc.Close(), "encode status")
	default:
		return eris.Errorf("unknown format %q (want yaml or json)", format)
	}
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "yaml", "output format: yaml or json")
	statusCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input JSON list of places")
	statusCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON list")
	rootCmd.AddCommand(statusCmd)
}
