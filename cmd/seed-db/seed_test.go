package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedSeeds(t *testing.T) {
	employees, err := loadEmployees("")
	require.NoError(t, err)
	require.Len(t, employees, 4)

	var inactive int
	for _, e := range employees {
		if !e.Active {
			inactive++
		}
	}
	assert.Equal(t, 1, inactive)

	items, err := loadMenuItems("")
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "item-veg-thali", items[0].ID)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(120)))
}

func TestParseMenuItems(t *testing.T) {
	items, err := parseMenuItems([]byte(`[{"id":"a","name":" Tea ","price":12.5,"extra":1}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tea", items[0].Name)
	assert.Equal(t, "12.50", items[0].Price.StringFixed(2))
}

func TestParseSeedErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		input string
	}{
		{"employee without id", func(b []byte) error { _, err := parseEmployees(b); return err }, `[{"name":"A"}]`},
		{"employee without name", func(b []byte) error { _, err := parseEmployees(b); return err }, `[{"id":"e1","name":"  "}]`},
		{"negative price", func(b []byte) error { _, err := parseMenuItems(b); return err }, `[{"id":"m1","name":"A","price":"-1"}]`},
		{"bad price", func(b []byte) error { _, err := parseMenuItems(b); return err }, `[{"id":"m1","name":"A","price":"abc"}]`},
		{"not an array", func(b []byte) error { _, err := parseMenuItems(b); return err }, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.parse([]byte(tt.input)))
		})
	}
}
