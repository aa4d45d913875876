package genodata

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config describes one run: where the genotypes come from, how they are
// filtered and updated, and where results go. It is read from TOML and then
// overridden by GENODATA_* environment variables.
type Config struct {
	AutosomeCount int    `toml:"autosome_num" envconfig:"GENODATA_AUTOSOME_NUM"`
	Threads       int    `toml:"thread_num" envconfig:"GENODATA_THREAD_NUM"`
	LogLevel      string `toml:"log_level" envconfig:"GENODATA_LOG_LEVEL"`
	Out           string `toml:"out" envconfig:"GENODATA_OUT"`
	Compression   string `toml:"compression" envconfig:"GENODATA_COMPRESSION"`

	// Exactly one input is configured: a PLINK prefix, a MACH pair or a
	// BEAGLE pair.
	BFile      string `toml:"bfile" envconfig:"GENODATA_BFILE"`
	MACHInfo   string `toml:"mach_info" envconfig:"GENODATA_MACH_INFO"`
	MACHDose   string `toml:"mach_dose" envconfig:"GENODATA_MACH_DOSE"`
	BeagleInfo string `toml:"beagle_info" envconfig:"GENODATA_BEAGLE_INFO"`
	BeagleDose string `toml:"beagle_dose" envconfig:"GENODATA_BEAGLE_DOSE"`

	Filter FilterConfig `toml:"filter"`
	Update UpdateConfig `toml:"update"`
}

// FilterConfig holds the selections. Zero values are not applied.
type FilterConfig struct {
	Extract    string `toml:"extract" envconfig:"GENODATA_EXTRACT"`
	Exclude    string `toml:"exclude" envconfig:"GENODATA_EXCLUDE"`
	ExtractSNP string `toml:"extract_snp" envconfig:"GENODATA_EXTRACT_SNP"`
	ExcludeSNP string `toml:"exclude_snp" envconfig:"GENODATA_EXCLUDE_SNP"`
	Keep       string `toml:"keep" envconfig:"GENODATA_KEEP"`
	Remove     string `toml:"remove" envconfig:"GENODATA_REMOVE"`
	Effects    string `toml:"effects" envconfig:"GENODATA_EFFECTS"`

	ChrStart      int     `toml:"chr_start" envconfig:"GENODATA_CHR_START"`
	ChrEnd        int     `toml:"chr_end" envconfig:"GENODATA_CHR_END"`
	MAF           float64 `toml:"maf" envconfig:"GENODATA_MAF"`
	MaxMAF        float64 `toml:"max_maf" envconfig:"GENODATA_MAX_MAF"`
	ImputationRsq float64 `toml:"imput_rsq" envconfig:"GENODATA_IMPUT_RSQ"`
}

// UpdateConfig names the files applied after loading.
type UpdateConfig struct {
	Sex           string `toml:"sex" envconfig:"GENODATA_UPDATE_SEX"`
	RefAllele     string `toml:"ref_allele" envconfig:"GENODATA_UPDATE_REF_ALLELE"`
	ImputationRsq string `toml:"imput_rsq" envconfig:"GENODATA_UPDATE_IMPUT_RSQ"`
	Frequency     string `toml:"freq" envconfig:"GENODATA_UPDATE_FREQ"`
}

func DefaultConfig() *Config {
	return &Config{
		AutosomeCount: DefaultAutosomeCount,
		LogLevel:      logrus.InfoLevel.String(),
		Out:           "genodata",
		Compression:   CompressionDisabled.String(),
	}
}

// LoadConfig reads and validates a configuration.
func LoadConfig(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads the TOML file at path, if any, over the defaults and
// then applies the environment. Unknown TOML keys are an error. The result
// is not validated.
func ReadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrFormat, path, strings.Join(keys, ", "))
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that exactly one input is configured and that the
// thresholds are in range.
func (c *Config) Validate() error {
	inputs := 0
	if c.BFile != "" {
		inputs++
	}
	if c.MACHInfo != "" || c.MACHDose != "" {
		if c.MACHInfo == "" || c.MACHDose == "" {
			return fmt.Errorf("%w: both the MACH info and dose files are required", ErrConsistency)
		}
		inputs++
	}
	if c.BeagleInfo != "" || c.BeagleDose != "" {
		if c.BeagleInfo == "" || c.BeagleDose == "" {
			return fmt.Errorf("%w: both the BEAGLE info and dose files are required", ErrConsistency)
		}
		inputs++
	}
	if inputs != 1 {
		return fmt.Errorf("%w: exactly one of bfile, MACH or BEAGLE input is required, %d given", ErrConsistency, inputs)
	}

	if c.AutosomeCount < 1 {
		return fmt.Errorf("%w: autosome_num must be positive", ErrConsistency)
	}
	f := c.Filter
	if f.MAF < 0 || f.MAF >= 0.5 {
		return fmt.Errorf("%w: maf must be in [0, 0.5), got %g", ErrConsistency, f.MAF)
	}
	if f.MaxMAF < 0 || f.MaxMAF > 0.5 {
		return fmt.Errorf("%w: max_maf must be in (0, 0.5], got %g", ErrConsistency, f.MaxMAF)
	}
	if f.MaxMAF > 0 && f.MaxMAF <= f.MAF {
		return fmt.Errorf("%w: max_maf must be larger than maf", ErrConsistency)
	}
	if f.ImputationRsq < 0 || f.ImputationRsq > 1 {
		return fmt.Errorf("%w: imput_rsq must be in [0, 1], got %g", ErrConsistency, f.ImputationRsq)
	}
	if (f.ChrStart > 0 || f.ChrEnd > 0) && (f.ChrStart < 1 || f.ChrEnd < f.ChrStart) {
		return fmt.Errorf("%w: chromosome range %d-%d", ErrConsistency, f.ChrStart, f.ChrEnd)
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrConsistency, err)
	}

	return nil
}

// NewLogger returns a logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}
