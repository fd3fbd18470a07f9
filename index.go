package bimjoin

import (
	"fmt"
	"os"
	"time"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
)

// BJIIndex is a SQLite index of matched representative records, shaped
// after the .bgi indexes that accompany BGEN files so that the same
// sqlx-based tooling can query either.
type BJIIndex struct {
	DB *sqlx.DB

	tx   *sqlx.Tx
	stmt *sqlx.Stmt
}

// VariantIndexRow conforms to the rows of the "Variant" table in a .bji
// file, and can be easily parsed with sqlx.
type VariantIndexRow struct {
	Chromosome uint32
	Position   uint32
	RSID       string `db:"rsid"`
	Allele1    string
	Allele2    string
}

// BJIMetadata conforms to the single row of the "Metadata" table.
type BJIMetadata struct {
	NInputs           int  `db:"n_inputs"`
	IndexCreationTime Time `db:"index_creation_time"`
}

const bjiSchema = `
CREATE TABLE Variant (
	chromosome INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	rsid       TEXT NOT NULL,
	allele1    TEXT NOT NULL,
	allele2    TEXT NOT NULL
);
CREATE TABLE Metadata (
	n_inputs            INTEGER NOT NULL,
	index_creation_time INTEGER NOT NULL
);`

// CreateBJI creates a fresh join index at path for a run over nInputs
// input files, replacing any index left by a previous run. All inserts run
// inside one transaction that Close commits.
func CreateBJI(path string, nInputs int) (*BJIIndex, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, pfx.Err(err)
	}

	db, err := connectSQLite(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	bji := &BJIIndex{DB: db}
	if _, err := db.Exec(bjiSchema); err != nil {
		db.Close()
		return nil, pfx.Err(fmt.Errorf("unable to create index schema: %w", err))
	}

	if _, err := db.Exec(
		"INSERT INTO Metadata (n_inputs, index_creation_time) VALUES (?, ?)",
		nInputs, time.Now().Unix(),
	); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	if bji.tx, err = db.Beginx(); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}
	if bji.stmt, err = bji.tx.Preparex(
		"INSERT INTO Variant (chromosome, position, rsid, allele1, allele2) VALUES (?, ?, ?, ?, ?)",
	); err != nil {
		bji.tx.Rollback()
		db.Close()
		return nil, pfx.Err(err)
	}

	return bji, nil
}

// OpenBJI opens an existing join index read-only-ish for querying.
func OpenBJI(path string) (*BJIIndex, error) {
	db, err := connectSQLite(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return &BJIIndex{DB: db}, nil
}

func (x *BJIIndex) Insert(v *Variant) error {
	if _, err := x.stmt.Exec(v.Chromosome, v.Coordinate, v.VariantID, v.Allele1, v.Allele2); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// Metadata reads the index's Metadata row.
func (x *BJIIndex) Metadata() (*BJIMetadata, error) {
	md := &BJIMetadata{}
	if err := x.DB.Get(md, "SELECT * FROM Metadata LIMIT 1"); err != nil {
		return nil, pfx.Err(err)
	}
	return md, nil
}

// Close commits any pending inserts and closes the database.
func (x *BJIIndex) Close() error {
	var err error
	if x.stmt != nil {
		err = multierr.Append(err, x.stmt.Close())
	}
	if x.tx != nil {
		err = multierr.Append(err, x.tx.Commit())
	}
	return multierr.Append(err, x.DB.Close())
}

// WhichSQLiteDriver names the SQLite driver compiled into this binary.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}

// IndexSink forwards every group to an inner Sink and additionally records
// each match group's representative in a BJIIndex.
type IndexSink struct {
	inner Sink
	idx   *BJIIndex
}

func WithIndex(inner Sink, idx *BJIIndex) *IndexSink {
	return &IndexSink{inner: inner, idx: idx}
}

func (s *IndexSink) Match(frontier []*Variant) error {
	if err := s.inner.Match(frontier); err != nil {
		return err
	}
	return s.idx.Insert(Representative(frontier))
}

func (s *IndexSink) Mismatch(frontier []*Variant) error {
	return s.inner.Mismatch(frontier)
}

func (s *IndexSink) Close() error {
	return multierr.Append(s.inner.Close(), s.idx.Close())
}
