//go:build !integration

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/config"
	"github.com/sells-group/shopfloor/internal/model"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func samplePartsList() *model.PartsListResult {
	return &model.PartsListResult{
		Order: "OP-900",
		Sheets: []model.TechnicalSheet{{
			ID:                 "FT-001",
			ProductID:          strPtr("PC-777"),
			ProductDescription: strPtr("Painel"),
			Operations: []model.Operation{
				{
					Description: strPtr("Corte"),
					Items: []model.ConsumedItem{
						{ID: "MP-1", Description: strPtr("Chapa"), ExpectedQuantity: floatPtr(2.5)},
					},
				},
				{
					Items: []model.ConsumedItem{{ID: "MP-2"}},
				},
			},
		}},
	}
}

func TestFormatMatches(t *testing.T) {
	var buf bytes.Buffer
	formatMatches(&buf, []model.SearchMatch{
		{
			Table:    model.TableOrderHistory,
			Column:   model.ColumnProductionOrder,
			Value:    "OP-12345-A",
			Details:  &model.OrderDetails{Model: strPtr("MX-10")},
			ImageURL: strPtr("https://img/mx10.png"),
		},
		{
			Table:  model.TableInvoiceHistory,
			Column: model.ColumnInvoice,
			Value:  "NF-1",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "OP-12345-A")
	assert.Contains(t, out, "MX-10")
	assert.Contains(t, out, "https://img/mx10.png")
	assert.Contains(t, out, "NF-1")
}

func TestFormatParts(t *testing.T) {
	var buf bytes.Buffer
	formatParts(&buf, samplePartsList())

	out := buf.String()
	assert.Contains(t, out, "Sheet FT-001")
	assert.Contains(t, out, "PC-777")
	assert.Contains(t, out, "Corte")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "(no operation)")
	assert.Contains(t, out, "MP-2")
}

func TestWritePartsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "OP-900.xlsx")
	require.NoError(t, writePartsFile(path, samplePartsList()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	wb, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
}

func TestWritePartsFile_BadPath(t *testing.T) {
	err := writePartsFile(filepath.Join(t.TempDir(), "missing", "out.xlsx"), samplePartsList())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create export file")
}

func TestFormatEntries(t *testing.T) {
	var buf bytes.Buffer
	formatEntries(&buf, []audit.Entry{
		{Action: audit.ActionSearch, Subject: "u1", Query: "OP-1", ResultCount: 3, Outcome: "ok", Duration: 12 * time.Millisecond, CreatedAt: time.Now()},
		{Action: audit.ActionParts, Query: "OP-2", Outcome: "timeout"},
	})

	out := buf.String()
	assert.Contains(t, out, "ACTION")
	assert.Contains(t, out, "search")
	assert.Contains(t, out, "u1")
	assert.Contains(t, out, "12ms")
	assert.Contains(t, out, "timeout")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/fabrica", redactURL("postgres://app:hunter2@db:5432/fabrica"))
	assert.Equal(t, "postgres://db/fabrica", redactURL("postgres://db/fabrica"))
	assert.Equal(t, "audit.db", redactURL("audit.db"))
	assert.Equal(t, "", redactURL(""))
}

func TestWriteConfig_MasksSecrets(t *testing.T) {
	c := &config.Config{}
	c.Store.DatabaseURL = "postgres://app:hunter2@db/fabrica"
	c.Auth.JWTSecret = "s3cret"
	c.Server.Port = 3001

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, c))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")
	assert.Equal(t, "s3cret", c.Auth.JWTSecret, "original config untouched")

	var back config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, 3001, back.Server.Port)
	assert.Equal(t, redacted, back.Auth.JWTSecret)
}

func TestCleanRoles(t *testing.T) {
	assert.Equal(t, []string{"admin", "operador"}, cleanRoles([]string{" admin", "", "operador "}))
	assert.Empty(t, cleanRoles(nil))
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, "-", quantity(nil))
	assert.Equal(t, "0.125", quantity(floatPtr(0.125)))
	assert.Equal(t, "3", quantity(floatPtr(3)))
}
