package conditions

import (
	"errors"
	"testing"

	sqlx "github.com/jmoiron/sqlx"
	tracs "github.com/next-exp/tracs_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE DetectorConditions (
	name TEXT NOT NULL,
	neff_type TEXT NOT NULL,
	y0 REAL, y1 REAL, y2 REAL, y3 REAL,
	z0 REAL, z1 REAL, z2 REAL, z3 REAL,
	trapping REAL,
	v_depletion REAL
)`

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	db.MustExec(schema)
	db.MustExec(`INSERT INTO DetectorConditions VALUES
		('pad300', 'Trilinear', 1, 2, 3, 4, 0, 100, 200, 300, 4e-9, 55),
		('pad200', 'Linear', 5, 0, 0, 6, 0, 0, 0, 200, 0, 0)`)
	return db
}

func TestLoad(t *testing.T) {
	db := openTestDB(t)

	conditions, err := Load(db, "pad300")
	require.NoError(t, err)
	assert.Equal(t, DetectorConditions{
		Name: "pad300", NeffType: "Trilinear",
		Y0: 1, Y1: 2, Y2: 3, Y3: 4,
		Z0: 0, Z1: 100, Z2: 200, Z3: 300,
		Trapping: 4e-9, VDepletion: 55,
	}, conditions)
	assert.Len(t, conditions.NeffParams(), tracs.DopingParameters)
}

func TestLoadUnknownDetector(t *testing.T) {
	db := openTestDB(t)

	_, err := Load(db, "strip")
	var missing *ErrNoConditions
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "strip", missing.Detector)
}

func TestLoadQueryError(t *testing.T) {
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = Load(db, "pad300")
	assert.ErrorContains(t, err, "error querying database")
}

func TestApply(t *testing.T) {
	db := openTestDB(t)
	config := tracs.DefaultConfiguration()

	conditions, err := Load(db, "pad300")
	require.NoError(t, err)
	conditions.Apply(&config)
	assert.Equal(t, []float64{1, 2, 3, 4, 0, 100, 200, 300}, config.NeffParam)
	assert.Equal(t, "Trilinear", config.NeffType)
	assert.Equal(t, 4e-9, config.Trapping)
	assert.Equal(t, 55., config.VDepletion)

	config = tracs.DefaultConfiguration()
	conditions, err = Load(db, "pad200")
	require.NoError(t, err)
	conditions.Apply(&config)
	assert.Equal(t, "Linear", config.NeffType)
	assert.Equal(t, tracs.DefaultConfiguration().Trapping, config.Trapping)
	assert.Equal(t, tracs.DefaultConfiguration().VDepletion, config.VDepletion)
}
