package genodata

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// MarkerIndexDB is a SQLite summary of a dataset's active markers, with
// their reference alleles, frequencies and imputation quality, that can be
// queried by name or genomic range without loading the genotypes.
type MarkerIndexDB struct {
	DB       *sqlx.DB
	Metadata *MarkerIndexMetadata
}

func (x *MarkerIndexDB) Close() error {
	return x.DB.Close()
}

// MarkerIndexRow conforms to the rows of the SQLite table "Marker".
type MarkerIndexRow struct {
	Chromosome int             `db:"chromosome"`
	Name       string          `db:"name"`
	Position   int             `db:"position"`
	Allele1    string          `db:"allele1"`
	Allele2    string          `db:"allele2"`
	RefAllele  string          `db:"ref_allele"`
	Frequency  sql.NullFloat64 `db:"frequency"`
	Quality    sql.NullFloat64 `db:"imputation_quality"`
}

// MarkerIndexMetadata conforms to the single row of the SQLite table
// "Metadata".
type MarkerIndexMetadata struct {
	Source            string `db:"source"`
	NMarkers          int    `db:"n_markers"`
	NSamples          int    `db:"n_samples"`
	IndexCreationTime Time   `db:"index_creation_time"`
}

const markerIndexSchema = `
CREATE TABLE Marker (
	chromosome INTEGER NOT NULL,
	name TEXT NOT NULL PRIMARY KEY,
	position INTEGER NOT NULL,
	allele1 TEXT NOT NULL,
	allele2 TEXT NOT NULL,
	ref_allele TEXT NOT NULL,
	frequency REAL,
	imputation_quality REAL
);
CREATE INDEX marker_position ON Marker (chromosome, position);
CREATE TABLE Metadata (
	source TEXT NOT NULL,
	n_markers INTEGER NOT NULL,
	n_samples INTEGER NOT NULL,
	index_creation_time INTEGER NOT NULL
);
`

func connectMarkerIndex(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
	// URI filenames without the file: prefix, but that is not standard.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(whichSQLiteDriver, path)
	if err != nil {
		return nil, err
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenMarkerIndex opens an index written by WriteMarkerIndex.
func OpenMarkerIndex(path string) (*MarkerIndexDB, error) {
	db, err := connectMarkerIndex(path)
	if err != nil {
		return nil, err
	}

	x := &MarkerIndexDB{
		DB:       db,
		Metadata: &MarkerIndexMetadata{},
	}
	if err := x.DB.Get(x.Metadata, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s has no marker index metadata: %v", ErrFormat, path, err)
	}

	return x, nil
}

// WriteMarkerIndex writes the active markers into a new SQLite index at
// path. Frequencies are included when mu is known.
func (d *Dataset) WriteMarkerIndex(path, source string) error {
	db, err := connectMarkerIndex(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(markerIndexSchema); err != nil {
		return fmt.Errorf("%s: creating the marker index: %w", path, err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(`INSERT INTO Marker (chromosome, name, position, allele1, allele2, ref_allele, frequency, imputation_quality)
	VALUES (:chromosome, :name, :position, :allele1, :allele2, :ref_allele, :frequency, :imputation_quality)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, i := range d.ActiveMarkers {
		m := d.Markers.At(i)
		row := MarkerIndexRow{
			Chromosome: m.Chromosome,
			Name:       m.Name,
			Position:   m.Position,
			Allele1:    m.Allele1,
			Allele2:    m.Allele2,
			RefAllele:  m.RefAllele,
		}
		if d.Mu != nil && !math.IsNaN(d.Mu[i]) {
			row.Frequency = sql.NullFloat64{Float64: 0.5 * d.Mu[i], Valid: true}
		}
		if d.Markers.HasQuality() {
			row.Quality = sql.NullFloat64{Float64: m.Quality, Valid: true}
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("%s: marker %q: %w", path, m.Name, err)
		}
	}

	_, err = tx.Exec("INSERT INTO Metadata (source, n_markers, n_samples, index_creation_time) VALUES (?, ?, ?, ?)",
		source, len(d.ActiveMarkers), len(d.ActiveSamples), time.Now().Unix())
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	d.log().WithField("path", path).Infof("Index of %d SNPs has been saved", len(d.ActiveMarkers))
	return nil
}

// Range returns the markers on chromosome chr with start <= position <= end,
// ordered by position.
func (x *MarkerIndexDB) Range(chr, start, end int) ([]MarkerIndexRow, error) {
	var rows []MarkerIndexRow
	err := x.DB.Select(&rows, "SELECT * FROM Marker WHERE chromosome = ? AND position BETWEEN ? AND ? ORDER BY position ASC", chr, start, end)
	return rows, err
}

// Lookup returns the marker with the given name.
func (x *MarkerIndexDB) Lookup(name string) (MarkerIndexRow, error) {
	var row MarkerIndexRow
	err := x.DB.Get(&row, "SELECT * FROM Marker WHERE name = ?", name)
	if err == sql.ErrNoRows {
		return row, fmt.Errorf("%w: SNP %q", ErrNotFound, name)
	}
	return row, err
}

// Names returns the marker names on chromosome chr between start and end,
// suitable for Dataset.ExtractMarkers.
func (x *MarkerIndexDB) Names(chr, start, end int) ([]string, error) {
	var names []string
	err := x.DB.Select(&names, "SELECT name FROM Marker WHERE chromosome = ? AND position BETWEEN ? AND ? ORDER BY position ASC", chr, start, end)
	return names, err
}
