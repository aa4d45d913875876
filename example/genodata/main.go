package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/sirupsen/logrus"
	"github.com/smilefreak/genodata"
	"github.com/spf13/cobra"
)

// options are the flags shared by every command. Flags that were set
// override the configuration file and the environment.
type options struct {
	configPath string
	bfile      string
	out        string
	threads    int
	autosomes  int
	logLevel   string
}

func (o *options) load(cmd *cobra.Command) (*genodata.Config, *logrus.Logger, error) {
	path, err := expandHome(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	// The input may come from the flags, so validation waits until they
	// are applied.
	cfg, err := genodata.ReadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("bfile") {
		if cfg.BFile, err = expandHome(o.bfile); err != nil {
			return nil, nil, err
		}
	}
	if flags.Changed("out") {
		cfg.Out = o.out
	}
	if flags.Changed("thread-num") {
		cfg.Threads = o.threads
	}
	if flags.Changed("autosome-num") {
		cfg.AutosomeCount = o.autosomes
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, cfg.NewLogger(), nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", pfx.Err(err)
	}
	return filepath.Join(usr.HomeDir, path[2:]), nil
}

func prepare(opts *options, cmd *cobra.Command) (*genodata.Config, *genodata.Dataset, error) {
	cfg, log, err := opts.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	d, err := genodata.Prepare(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, d, nil
}

func freqCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "freq",
		Short: "Write the reference allele frequency of every SNP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			// Frequencies from an update file are kept; otherwise they are
			// computed from the genotypes.
			return d.SaveFrequencies(cfg.Out + ".freq")
		},
	}
}

func ibcCommand(opts *options) *cobra.Command {
	var extended bool

	cmd := &cobra.Command{
		Use:   "ibc",
		Short: "Estimate the inbreeding coefficient of every individual",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			results, err := d.EstimateInbreeding(extended)
			if err != nil {
				return err
			}
			return d.SaveInbreeding(cfg.Out+".ibc", results, extended)
		},
	}
	cmd.Flags().BoolVar(&extended, "ibc-all", false, "Write every estimator and the homozygote proportions")
	return cmd
}

func paaCommand(opts *options) *cobra.Command {
	var ancestralPath string

	cmd := &cobra.Command{
		Use:   "paa",
		Short: "Classify genotypes against ancestral alleles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			ancestral, err := genodata.ReadAncestralAllelesFile(ancestralPath)
			if err != nil {
				return err
			}
			results, err := d.AncestralAlleleProportions(ancestral)
			if err != nil {
				return err
			}
			return d.SaveAncestral(cfg.Out+".paa", results)
		},
	}
	cmd.Flags().StringVar(&ancestralPath, "ancestral", "", "File of SNP names and their ancestral alleles")
	cmd.MarkFlagRequired("ancestral")
	return cmd
}

func makeBedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "make-bed",
		Short: "Save the retained genotypes as PLINK binary files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			return d.SaveBinary(cfg.Out)
		},
	}
}

func xmatCommand(opts *options) *cobra.Command {
	var fillWithMu bool

	cmd := &cobra.Command{
		Use:   "xmat",
		Short: "Write the genotypes as a text matrix of reference allele counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			c, err := genodata.ParseCompression(cfg.Compression)
			if err != nil {
				return err
			}
			return d.SaveXMat(cfg.Out+".xmat"+c.Extension(), fillWithMu, c)
		},
	}
	cmd.Flags().BoolVar(&fillWithMu, "fill-mu", false, "Write missing genotypes as the mean instead of NA")
	return cmd
}

func indexCommand(opts *options) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Write a SQLite index of the retained SNPs, or query one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query != "" {
				return queryIndex(cmd, query, args)
			}

			cfg, d, err := prepare(opts, cmd)
			if err != nil {
				return err
			}
			if d.Mu == nil {
				if _, err := d.ComputeMeanDosage(); err != nil {
					return err
				}
			}
			source := cfg.BFile
			if source == "" {
				source = cfg.MACHDose + cfg.BeagleDose
			}
			return d.WriteMarkerIndex(cfg.Out+".snpidx", source)
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Query an existing index instead of writing one; arguments are SNP names")
	return cmd
}

func queryIndex(cmd *cobra.Command, path string, names []string) error {
	idx, err := genodata.OpenMarkerIndex(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s: %d SNPs, %d individuals, created %s (%s driver)\n",
		idx.Metadata.Source, idx.Metadata.NMarkers, idx.Metadata.NSamples, idx.Metadata.IndexCreationTime, genodata.WhichSQLiteDriver())
	for _, name := range names {
		row, err := idx.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%s\t%d\t%s\t%s\t%s\n", row.Chromosome, row.Name, row.Position, row.Allele1, row.Allele2, row.RefAllele)
	}
	return nil
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "genodata",
		Short:         "Genotype data management for PLINK binary and imputed dosage files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&opts.bfile, "bfile", "", "Prefix of the PLINK .bed, .bim and .fam files")
	flags.StringVarP(&opts.out, "out", "o", "genodata", "Prefix of the output files")
	flags.IntVar(&opts.threads, "thread-num", 0, "Number of threads")
	flags.IntVar(&opts.autosomes, "autosome-num", genodata.DefaultAutosomeCount, "Number of autosomes")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level")

	rootCmd.AddCommand(freqCommand(opts))
	rootCmd.AddCommand(ibcCommand(opts))
	rootCmd.AddCommand(paaCommand(opts))
	rootCmd.AddCommand(makeBedCommand(opts))
	rootCmd.AddCommand(xmatCommand(opts))
	rootCmd.AddCommand(indexCommand(opts))

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.Errorln(err)
		os.Exit(1)
	}
}
