package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-06", d.AddDays(7).String())
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, "2024-02-01", NewDate(2024, time.January, 32).String())
}

func TestDateOfUsesLocation(t *testing.T) {
	instant := time.Date(2024, time.March, 4, 20, 30, 0, 0, time.UTC)
	hcm := time.FixedZone("ICT", 7*3600)

	assert.Equal(t, NewDate(2024, time.March, 4), DateOf(instant))
	assert.Equal(t, NewDate(2024, time.March, 5), DateOf(instant.In(hcm)))
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-01", d.String())

	require.NoError(t, d.Scan("2024-05-02"))
	assert.Equal(t, "2024-05-02", d.String())

	require.NoError(t, d.Scan([]byte("2024-05-03T00:00:00Z")))
	assert.Equal(t, "2024-05-03", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.May, 4).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04", v)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		When Date `json:"when"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2024-12-31"}`), &payload))
	assert.Equal(t, NewDate(2024, time.December, 31), payload.When)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2024-12-31"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"when":"31/12/2024"}`), &payload))
}
