// Package conditions reads detector conditions (doping profile, trapping
// time, depletion voltage) from the run-condition database.
package conditions

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
	tracs "github.com/next-exp/tracs_go/pkg"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// DetectorConditions is one row of the DetectorConditions table. Neff values
// are in 1e12 cm^-3 at the depths Z0..Z3 (um).
type DetectorConditions struct {
	Name       string  `db:"name"`
	NeffType   string  `db:"neff_type"`
	Y0         float64 `db:"y0"`
	Y1         float64 `db:"y1"`
	Y2         float64 `db:"y2"`
	Y3         float64 `db:"y3"`
	Z0         float64 `db:"z0"`
	Z1         float64 `db:"z1"`
	Z2         float64 `db:"z2"`
	Z3         float64 `db:"z3"`
	Trapping   float64 `db:"trapping"`
	VDepletion float64 `db:"v_depletion"`
}

type ErrNoConditions struct {
	Detector string
}

func (e *ErrNoConditions) Error() string {
	return fmt.Sprintf("no conditions found for detector %q", e.Detector)
}

const conditionsQuery = "SELECT name, neff_type, y0, y1, y2, y3, z0, z1, z2, z3, trapping, v_depletion " +
	"FROM DetectorConditions WHERE name = ?"

// Load returns the conditions of a detector. When several rows match the
// last one wins.
func Load(db *sqlx.DB, detectorName string) (DetectorConditions, error) {
	rows, err := db.Queryx(conditionsQuery, detectorName)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return DetectorConditions{}, errMessage
	}
	defer rows.Close()

	found := false
	result := DetectorConditions{}
	for rows.Next() {
		if err := rows.StructScan(&result); err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return DetectorConditions{}, errMessage
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return DetectorConditions{}, fmt.Errorf("error reading DB rows: %w", err)
	}
	if !found {
		return DetectorConditions{}, &ErrNoConditions{Detector: detectorName}
	}
	return result, nil
}

// NeffParams returns the doping profile in the [y0..y3 z0..z3] layout.
func (c DetectorConditions) NeffParams() []float64 {
	return []float64{c.Y0, c.Y1, c.Y2, c.Y3, c.Z0, c.Z1, c.Z2, c.Z3}
}

// Apply overrides the configuration with the stored conditions. Empty or
// non positive values leave the configuration untouched.
func (c DetectorConditions) Apply(config *tracs.Configuration) {
	config.NeffParam = c.NeffParams()
	if c.NeffType != "" {
		config.NeffType = c.NeffType
	}
	if c.Trapping > 0 {
		config.Trapping = c.Trapping
	}
	if c.VDepletion > 0 {
		config.VDepletion = c.VDepletion
	}
}
