package genodata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// reportFloat prints the shortest representation that round-trips.
type reportFloat float64

func (f reportFloat) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'g', -1, 64), nil
}

// frequencyFloat prints 15 significant digits.
type frequencyFloat float64

func (f frequencyFloat) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(f), 'g', 15, 64), nil
}

func tabWriter(w io.Writer) *gocsv.SafeCSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return gocsv.NewSafeCSVWriter(cw)
}

type frequencyRow struct {
	Name      string         `csv:"SNP"`
	RefAllele string         `csv:"A1"`
	Frequency frequencyFloat `csv:"FREQ"`
}

// WriteFrequencies writes the reference allele frequency, mu/2, of every
// active marker. The report has no header row.
func (d *Dataset) WriteFrequencies(w io.Writer) error {
	if err := d.ensureMu(); err != nil {
		return err
	}

	rows := make([]frequencyRow, 0, len(d.ActiveMarkers))
	for _, i := range d.ActiveMarkers {
		m := d.Markers.At(i)
		rows = append(rows, frequencyRow{Name: m.Name, RefAllele: m.RefAllele, Frequency: frequencyFloat(0.5 * d.Mu[i])})
	}

	return gocsv.MarshalCSVWithoutHeaders(rows, tabWriter(w))
}

type inbreedingRow struct {
	FID    string      `csv:"FID"`
	IID    string      `csv:"IID"`
	NoMiss reportFloat `csv:"NOMISS"`
	Fhat1  reportFloat `csv:"Fhat1"`
	Fhat2  reportFloat `csv:"Fhat2"`
	Fhat3  reportFloat `csv:"Fhat3"`
}

type inbreedingExtendedRow struct {
	FID       string      `csv:"FID"`
	IID       string      `csv:"IID"`
	NoMiss    reportFloat `csv:"NOMISS"`
	RareHom   reportFloat `csv:"P_RARE_HOM"`
	CommonHom reportFloat `csv:"P_COMM_HOM"`
	Fhat1     reportFloat `csv:"Fhat1"`
	Fhat1W    reportFloat `csv:"Fhat1_w"`
	Fhat2     reportFloat `csv:"Fhat2"`
	Fhat2W    reportFloat `csv:"Fhat2_w"`
	Fhat3     reportFloat `csv:"Fhat3"`
	Fhat4     reportFloat `csv:"Fhat4"`
	Fhat5     reportFloat `csv:"Fhat5"`
	Fhat6     reportFloat `csv:"Fhat6"`
	Fhat7     reportFloat `csv:"Fhat7"`
}

// WriteInbreeding writes the inbreeding report, one row per sample.
func (d *Dataset) WriteInbreeding(w io.Writer, results []Inbreeding, extended bool) error {
	if !extended {
		rows := make([]inbreedingRow, 0, len(results))
		for _, f := range results {
			s := d.Samples.At(f.Sample)
			rows = append(rows, inbreedingRow{
				FID: s.FamilyID, IID: s.IndividualID, NoMiss: reportFloat(f.NonMissing),
				Fhat1: reportFloat(f.Fhat1), Fhat2: reportFloat(f.Fhat2), Fhat3: reportFloat(f.Fhat3),
			})
		}
		return gocsv.MarshalCSV(rows, tabWriter(w))
	}

	rows := make([]inbreedingExtendedRow, 0, len(results))
	for _, f := range results {
		s := d.Samples.At(f.Sample)
		rows = append(rows, inbreedingExtendedRow{
			FID: s.FamilyID, IID: s.IndividualID, NoMiss: reportFloat(f.NonMissing),
			RareHom: reportFloat(f.RareHom), CommonHom: reportFloat(f.CommonHom),
			Fhat1: reportFloat(f.Fhat1), Fhat1W: reportFloat(f.Fhat1W),
			Fhat2: reportFloat(f.Fhat2), Fhat2W: reportFloat(f.Fhat2W),
			Fhat3: reportFloat(f.Fhat3), Fhat4: reportFloat(f.Fhat4),
			Fhat5: reportFloat(f.Fhat5), Fhat6: reportFloat(f.Fhat6), Fhat7: reportFloat(f.Fhat7),
		})
	}
	return gocsv.MarshalCSV(rows, tabWriter(w))
}

type ancestralRow struct {
	FID                string      `csv:"FID"`
	IID                string      `csv:"IID"`
	NoMiss             reportFloat `csv:"NOMISS"`
	HomAncestralRare   reportFloat `csv:"HOM_AA_RARE"`
	HomAncestralCommon reportFloat `csv:"HOM_AA_COMM"`
	HomDerivedRare     reportFloat `csv:"HOM_DA_RARE"`
	HomDerivedCommon   reportFloat `csv:"HOM_DA_COMM"`
	HetAncestralRare   reportFloat `csv:"HET_AA_RARE"`
	HetAncestralCommon reportFloat `csv:"HET_AA_COMM"`
}

// WriteAncestral writes the ancestral allele report, one row per sample.
func (d *Dataset) WriteAncestral(w io.Writer, results []AncestralProportions) error {
	rows := make([]ancestralRow, 0, len(results))
	for _, a := range results {
		s := d.Samples.At(a.Sample)
		rows = append(rows, ancestralRow{
			FID: s.FamilyID, IID: s.IndividualID, NoMiss: reportFloat(a.NonMissing),
			HomAncestralRare:   reportFloat(a.HomAncestralRare),
			HomAncestralCommon: reportFloat(a.HomAncestralCommon),
			HomDerivedRare:     reportFloat(a.HomDerivedRare),
			HomDerivedCommon:   reportFloat(a.HomDerivedCommon),
			HetAncestralRare:   reportFloat(a.HetAncestralRare),
			HetAncestralCommon: reportFloat(a.HetAncestralCommon),
		})
	}
	return gocsv.MarshalCSV(rows, tabWriter(w))
}

type famRow struct {
	FID       string      `csv:"FID"`
	IID       string      `csv:"IID"`
	Paternal  string      `csv:"PAT"`
	Maternal  string      `csv:"MAT"`
	Sex       int         `csv:"SEX"`
	Phenotype reportFloat `csv:"PHENOTYPE"`
}

// WriteFAM writes the active samples as a PLINK FAM file.
func (d *Dataset) WriteFAM(w io.Writer) error {
	rows := make([]famRow, 0, len(d.ActiveSamples))
	for _, i := range d.ActiveSamples {
		s := d.Samples.At(i)
		rows = append(rows, famRow{
			FID: s.FamilyID, IID: s.IndividualID, Paternal: s.PaternalID, Maternal: s.MaternalID,
			Sex: int(s.Sex), Phenotype: reportFloat(s.Phenotype),
		})
	}
	return gocsv.MarshalCSVWithoutHeaders(rows, tabWriter(w))
}

type bimRow struct {
	Chromosome      int         `csv:"CHR"`
	Name            string      `csv:"SNP"`
	GeneticDistance reportFloat `csv:"CM"`
	Position        int         `csv:"BP"`
	Allele1         string      `csv:"A1"`
	Allele2         string      `csv:"A2"`
}

// WriteBIM writes the active markers as a PLINK BIM file.
func (d *Dataset) WriteBIM(w io.Writer) error {
	rows := make([]bimRow, 0, len(d.ActiveMarkers))
	for _, i := range d.ActiveMarkers {
		m := d.Markers.At(i)
		rows = append(rows, bimRow{
			Chromosome: m.Chromosome, Name: m.Name, GeneticDistance: reportFloat(m.GeneticDistance),
			Position: m.Position, Allele1: m.Allele1, Allele2: m.Allele2,
		})
	}
	return gocsv.MarshalCSVWithoutHeaders(rows, tabWriter(w))
}

// SaveBinary writes the active markers and samples as prefix.bed,
// prefix.bim and prefix.fam. Dosages are converted to hard calls.
func (d *Dataset) SaveBinary(prefix string) error {
	calls, err := d.HardCalls()
	if err != nil {
		return err
	}

	if err := writeFile(prefix+".fam", d.WriteFAM); err != nil {
		return err
	}
	if err := writeFile(prefix+".bim", d.WriteBIM); err != nil {
		return err
	}
	err = writeFile(prefix+".bed", func(w io.Writer) error {
		return EncodeBED(w, calls, d.ActiveMarkers, d.ActiveSamples)
	})
	if err != nil {
		return err
	}

	d.log().WithField("prefix", prefix).Infof("Genotype data of %d individuals and %d SNPs have been saved", len(d.ActiveSamples), len(d.ActiveMarkers))
	return nil
}

// SaveFrequencies writes WriteFrequencies to path.
func (d *Dataset) SaveFrequencies(path string) error {
	if err := writeFile(path, d.WriteFrequencies); err != nil {
		return err
	}
	d.log().WithField("path", path).Infof("Allele frequencies of %d SNPs have been saved", len(d.ActiveMarkers))
	return nil
}

// SaveInbreeding writes WriteInbreeding to path.
func (d *Dataset) SaveInbreeding(path string, results []Inbreeding, extended bool) error {
	err := writeFile(path, func(w io.Writer) error {
		return d.WriteInbreeding(w, results, extended)
	})
	if err != nil {
		return err
	}
	d.log().WithField("path", path).Infof("Inbreeding coefficients of %d individuals have been saved", len(results))
	return nil
}

// SaveAncestral writes WriteAncestral to path.
func (d *Dataset) SaveAncestral(path string, results []AncestralProportions) error {
	err := writeFile(path, func(w io.Writer) error {
		return d.WriteAncestral(w, results)
	})
	if err != nil {
		return err
	}
	d.log().WithField("path", path).Infof("Ancestral allele proportions of %d individuals have been saved", len(results))
	return nil
}

// writeFile creates path and hands it to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}
