package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/crander/idlglue/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewGlueCommand())
	rootCmd.AddCommand(NewHeaderCommand())
	rootCmd.AddCommand(NewHashCommand())
}

func addGenerateFlags(c *cobra.Command, options *generate.Options) {
	c.Flags().StringVarP(&options.OutputDir, "output-directory", "o", "glue", "directory to write generated files")
	c.Flags().BoolVar(&options.StrictDocs, "strict-docs", false, "fail when an exposed member has no doc attribute")
	c.Flags().BoolVar(&options.Force, "force", false, "regenerate even when the cache key matches")
}

func runGenerate(options *generate.Options, args []string) {
	options.Inputs = args
	if err := generate.Run(afero.NewOsFs(), options); err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

// NewGlueCommand generates the NPAPI glue plus the declaration headers for
// the given declaration files.
func NewGlueCommand() *cobra.Command {
	options := &generate.Options{EmitHeaders: true, EmitGlue: true}
	c := &cobra.Command{
		Use:   "glue [files...]",
		Short: "generate NPAPI glue",
		Long:  "Generate the NPAPI dispatch glue and declaration headers for the given IDL declaration files, in command-line order.",
		Args:  cobra.MinimumNArgs(1),
		Run: func(c *cobra.Command, args []string) {
			runGenerate(options, args)
		},
	}
	addGenerateFlags(c, options)
	return c
}

// NewHeaderCommand generates only the declaration headers.
func NewHeaderCommand() *cobra.Command {
	options := &generate.Options{EmitHeaders: true}
	c := &cobra.Command{
		Use:   "header [files...]",
		Short: "generate declaration headers only",
		Args:  cobra.MinimumNArgs(1),
		Run: func(c *cobra.Command, args []string) {
			runGenerate(options, args)
		},
	}
	addGenerateFlags(c, options)
	return c
}

// NewHashCommand prints the incremental cache key for the given inputs, for
// build systems that want to track it themselves.
func NewHashCommand() *cobra.Command {
	options := &generate.Options{EmitHeaders: true, EmitGlue: true}
	c := &cobra.Command{
		Use:   "hash [files...]",
		Short: "print the incremental cache key",
		Args:  cobra.MinimumNArgs(1),
		Run: func(c *cobra.Command, args []string) {
			options.Inputs = args
			key, err := generate.CacheKey(afero.NewOsFs(), options)
			if err != nil {
				slog.Error("hashing failed", "error", err)
				os.Exit(1)
			}
			fmt.Println(key)
		},
	}
	addGenerateFlags(c, options)
	return c
}
