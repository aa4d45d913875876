package genodata

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Prepare loads the configured input and applies the configured updates and
// filters in order: samples, markers, genotypes, then the filters that need
// genotypes.
func Prepare(cfg *Config, log logrus.FieldLogger) (*Dataset, error) {
	d := NewDataset()
	d.AutosomeCount = cfg.AutosomeCount
	if cfg.Threads > 0 {
		d.Threads = cfg.Threads
	}
	if log != nil {
		d.Log = log
	}

	var err error
	switch {
	case cfg.BFile != "":
		err = d.prepareBinary(cfg)
	case cfg.MACHInfo != "":
		err = d.prepareDosage(cfg, LayoutMACH, cfg.MACHInfo, cfg.MACHDose)
	default:
		err = d.prepareDosage(cfg, LayoutBeagle, cfg.BeagleInfo, cfg.BeagleDose)
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dataset) prepareBinary(cfg *Config) error {
	f := cfg.Filter

	if err := d.ReadFAMFile(cfg.BFile + ".fam"); err != nil {
		return err
	}
	if f.Keep != "" {
		if err := d.KeepSamplesFile(f.Keep); err != nil {
			return err
		}
	}
	if f.Remove != "" {
		if err := d.RemoveSamplesFile(f.Remove); err != nil {
			return err
		}
	}
	if f.Effects != "" {
		effects, err := readSampleEffectsFile(f.Effects)
		if err != nil {
			return err
		}
		keys := make([]SampleKey, 0, len(effects))
		for k := range effects {
			keys = append(keys, k)
		}
		if err := d.KeepSamples(keys); err != nil {
			return err
		}
	}
	if cfg.Update.Sex != "" {
		if err := d.UpdateSexFile(cfg.Update.Sex); err != nil {
			return err
		}
	}

	if err := d.ReadBIMFile(cfg.BFile + ".bim"); err != nil {
		return err
	}
	if err := d.applyMarkerSelection(f); err != nil {
		return err
	}

	if err := d.ReadBEDFile(cfg.BFile + ".bed"); err != nil {
		return err
	}

	return d.applyGenotypeUpdates(cfg)
}

func (d *Dataset) prepareDosage(cfg *Config, layout DosageLayout, info, dose string) error {
	f := cfg.Filter

	var err error
	if layout == LayoutBeagle {
		err = d.ReadBeagleInfoFile(info)
	} else {
		err = d.ReadMACHInfoFile(info)
	}
	if err != nil {
		return err
	}
	if err := d.applyMarkerSelection(f); err != nil {
		return err
	}
	if cfg.Update.ImputationRsq != "" {
		if err := d.UpdateImputationQualityFile(cfg.Update.ImputationRsq); err != nil {
			return err
		}
	}
	if f.ImputationRsq > 0 {
		if err := d.FilterImputationQuality(f.ImputationRsq); err != nil {
			return err
		}
	}

	filter, err := dosageFilterFromConfig(f)
	if err != nil {
		return err
	}
	if layout == LayoutBeagle {
		err = d.ReadBeagleDoseFile(dose, filter)
	} else {
		err = d.ReadMACHDoseFile(dose, filter)
	}
	if err != nil {
		return err
	}

	if cfg.Update.Sex != "" {
		if err := d.UpdateSexFile(cfg.Update.Sex); err != nil {
			return err
		}
	}

	return d.applyGenotypeUpdates(cfg)
}

// applyMarkerSelection runs the name and chromosome selections, which only
// need the marker registry.
func (d *Dataset) applyMarkerSelection(f FilterConfig) error {
	if f.Extract != "" {
		if err := d.ExtractMarkersFile(f.Extract); err != nil {
			return err
		}
	}
	if f.Exclude != "" {
		if err := d.ExcludeMarkersFile(f.Exclude); err != nil {
			return err
		}
	}
	if f.ExtractSNP != "" {
		if err := d.ExtractMarker(f.ExtractSNP); err != nil {
			return err
		}
	}
	if f.ExcludeSNP != "" {
		if err := d.ExcludeMarker(f.ExcludeSNP); err != nil {
			return err
		}
	}
	if f.ChrStart > 0 {
		if err := d.ExtractChromosomes(f.ChrStart, f.ChrEnd); err != nil {
			return err
		}
	}
	return nil
}

// applyGenotypeUpdates runs the steps that follow the genotype load.
func (d *Dataset) applyGenotypeUpdates(cfg *Config) error {
	f := cfg.Filter

	if cfg.Update.RefAllele != "" {
		if err := d.UpdateRefAlleleFile(cfg.Update.RefAllele); err != nil {
			return err
		}
	}
	if cfg.Update.Frequency != "" {
		if err := d.UpdateFrequencyFile(cfg.Update.Frequency); err != nil {
			return err
		}
	}
	if f.MAF > 0 {
		if err := d.FilterMAF(f.MAF); err != nil {
			return err
		}
	}
	if f.MaxMAF > 0 {
		if err := d.FilterMaxMAF(f.MaxMAF); err != nil {
			return err
		}
	}
	return nil
}

func dosageFilterFromConfig(f FilterConfig) (DosageFilter, error) {
	var filter DosageFilter
	if f.Keep != "" {
		keys, err := readSampleListFile(f.Keep)
		if err != nil {
			return filter, err
		}
		filter.Keep = NewSampleSet(keys)
	}
	if f.Remove != "" {
		keys, err := readSampleListFile(f.Remove)
		if err != nil {
			return filter, err
		}
		filter.Remove = NewSampleSet(keys)
	}
	if f.Effects != "" {
		effects, err := readSampleEffectsFile(f.Effects)
		if err != nil {
			return filter, err
		}
		filter.Effects = EffectsSet(effects)
	}
	return filter, nil
}

func readSampleEffectsFile(path string) (effects map[SampleKey][]float64, err error) {
	err = withInput(path, func(r io.Reader) error {
		effects, err = ReadSampleEffects(r)
		return err
	})
	return effects, err
}
