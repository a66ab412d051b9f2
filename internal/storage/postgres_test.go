package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/contracts"
)

// fakeRow copies values into Scan destinations by reflection.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		if r.values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

// fakeRows iterates over fakeRow values the way pgx.Rows does.
type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }

func (r *fakeRows) Err() error { return r.err }

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql"}, names)
}

func TestMarshalList(t *testing.T) {
	body, err := marshalList[contracts.Alert](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", body)

	v, err := marshalNullable[contracts.TechnicalDetails](nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func propertyRow(p contracts.Property, findings string) fakeRow {
	details, _ := marshalNullable(p.TechnicalDetails)
	rootCauses, _ := marshalList(p.RootCauses)
	return fakeRow{values: []any{
		p.ID, p.Address, p.Owner, p.OwnerID, p.RiskScore, p.ImageURL, p.Description,
		[]byte(details.(string)), []byte(findings), []byte(rootCauses), []byte("[]"), []byte("[]"),
	}}
}

func TestScanProperty(t *testing.T) {
	sample := SampleProperties()[2]
	findings, err := marshalList(sample.Findings)
	require.NoError(t, err)

	p, err := scanProperty(propertyRow(sample, findings))
	require.NoError(t, err)
	assert.Equal(t, sample.ID, p.ID)
	assert.Equal(t, sample.TechnicalDetails, p.TechnicalDetails)
	assert.Equal(t, sample.Findings, p.Findings)
	assert.Equal(t, sample.RootCauses, p.RootCauses)
	assert.Empty(t, p.Alerts)

	_, err = scanProperty(propertyRow(sample, "{broken"))
	assert.ErrorIs(t, err, contracts.ErrCorrupt)
	assert.NotErrorIs(t, err, contracts.ErrValidation)

	_, err = scanProperty(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = scanProperty(fakeRow{err: errors.New("conn reset")})
	assert.ErrorIs(t, err, contracts.ErrTransport)
}

func TestCollectProperties_SkipsCorruptRows(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	samples := SampleProperties()
	good := func(p contracts.Property) fakeRow {
		findings, err := marshalList(p.Findings)
		require.NoError(t, err)
		return propertyRow(p, findings)
	}

	got, err := collectProperties(&fakeRows{rows: []fakeRow{
		good(samples[0]),
		propertyRow(samples[1], "{broken"),
		good(samples[2]),
	}}, logger)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)

	_, err = collectProperties(&fakeRows{rows: []fakeRow{
		good(samples[0]),
		{err: errors.New("conn reset")},
	}}, logger)
	assert.ErrorIs(t, err, contracts.ErrTransport)

	_, err = collectProperties(&fakeRows{err: errors.New("tls: bad record")}, logger)
	assert.ErrorIs(t, err, contracts.ErrTransport)
}
