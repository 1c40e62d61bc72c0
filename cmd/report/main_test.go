package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shopledger/internal/bootstrap"
	"shopledger/internal/infrastructure/http/v1/dto"
	"shopledger/pkg/logger"
)

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "balance")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "balance", string(data))
}

func TestWriteOutput_WriteErrorWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	boom := errors.New("disk full")

	err := writeOutput(path, func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWriteOutput_CreateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")

	err := writeOutput(path, func(io.Writer) error { return nil })
	assert.Error(t, err)
}

func TestRun_DemoLedger(t *testing.T) {
	ctx := context.Background()
	cfg := bootstrap.Config{Location: time.UTC, SeedDemo: true}
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "balance.json")
	require.NoError(t, run(ctx, cfg, logger.NewNop(), "", "", "json", jsonPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NotNil(t, resp.Report)
	assert.Len(t, resp.Report.Products, 2)

	xlsxPath := filepath.Join(dir, "balance.xlsx")
	require.NoError(t, run(ctx, cfg, logger.NewNop(), "", "", "xlsx", xlsxPath))

	book, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Club Mate", rows[1][1])
	assert.Equal(t, "Coffee", rows[2][1])
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	err := run(ctx, bootstrap.Config{}, log, "", "", "json", "")
	assert.ErrorIs(t, err, errNoReport)

	err = run(ctx, bootstrap.Config{}, log, "", "", "csv", "")
	assert.Error(t, err)

	err = run(ctx, bootstrap.Config{}, log, "0190a7f0-0000-7000-8000-000000000000", "", "json", "")
	assert.Error(t, err)
}
