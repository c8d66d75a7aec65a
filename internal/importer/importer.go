// Package importer loads problems into the store from Excel or CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/pkg/models"
)

// ProblemStore is the problem access the importer needs
type ProblemStore interface {
	Create(ctx context.Context, p *models.Problem) error
	FindByTitle(ctx context.Context, title string) (*models.Problem, error)
	UpdateDifficulty(ctx context.Context, id int64, difficulty float64, at time.Time) error
}

// Config defines one import run
type Config struct {
	FilePath         string // Path to the Excel or CSV file
	TitleColumn      int    // 0-based column with the problem title
	SubjectColumn    int    // 0-based column with the subject
	DifficultyColumn int    // 0-based column with the difficulty (1-10)
	TagsColumn       int    // 0-based column with comma-separated tags
	SheetName        string // Name of the sheet to import (Excel only)
	StartRow         int    // The row to start importing from (1-based)
}

// DefaultConfig returns the default import layout: title, subject,
// difficulty, tags in the first four columns, header in row 1.
func DefaultConfig(path string) Config {
	return Config{
		FilePath:         path,
		TitleColumn:      0,
		SubjectColumn:    1,
		DifficultyColumn: 2,
		TagsColumn:       3,
		SheetName:        "Sheet1",
		StartRow:         2,
	}
}

// Result holds the outcome of one import run
type Result struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer loads problem rows into the store
type Importer struct {
	problems ProblemStore
	log      *logger.Logger

	now func() time.Time
}

// New creates an importer over the given store
func New(problems ProblemStore, log *logger.Logger) *Importer {
	return &Importer{problems: problems, log: log, now: time.Now}
}

// Import reads the configured file and upserts its problems. The file type
// is chosen by extension; anything that is not .csv is treated as Excel.
func (im *Importer) Import(ctx context.Context, config Config) (*Result, error) {
	rows, err := readRows(config)
	if err != nil {
		return nil, err
	}

	result := &Result{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := im.processRow(ctx, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
		}
	}

	im.log.Info("import finished",
		"file", config.FilePath,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func readRows(config Config) ([][]string, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return readCSV(config.FilePath)
	}
	return readExcel(config.FilePath, config.SheetName)
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.Validation("filePath", fmt.Sprintf("failed to open Excel file: %v", err))
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errs.Validation("sheetName", fmt.Sprintf("failed to read sheet: %v", err))
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Validation("filePath", fmt.Sprintf("failed to open CSV file: %v", err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Validation("filePath", fmt.Sprintf("failed to parse CSV: %v", err))
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (im *Importer) processRow(ctx context.Context, row []string, config Config, result *Result) error {
	title := cell(row, config.TitleColumn)
	if title == "" {
		result.Skipped++
		return nil
	}

	difficulty := 5.0
	if raw := cell(row, config.DifficultyColumn); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid difficulty %q", raw)
		}
		if parsed < 1 || parsed > 10 {
			return fmt.Errorf("difficulty %.1f outside the 1-10 scale", parsed)
		}
		difficulty = parsed
	}

	existing, err := im.problems.FindByTitle(ctx, title)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Difficulty != difficulty {
			if err := im.problems.UpdateDifficulty(ctx, existing.ID, difficulty, im.now()); err != nil {
				return err
			}
			result.Updated++
			return nil
		}
		result.Skipped++
		return nil
	}

	problem := &models.Problem{
		Title:      title,
		Subject:    cell(row, config.SubjectColumn),
		Difficulty: difficulty,
		Tags:       normalizeTags(cell(row, config.TagsColumn)),
	}
	if err := im.problems.Create(ctx, problem); err != nil {
		return err
	}
	result.Created++
	return nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeTags(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return strings.Join(out, ",")
}
