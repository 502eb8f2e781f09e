package gsheet

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"google.golang.org/api/sheets/v4"

	"yahoo-comments-scraper/internal/config"
	"yahoo-comments-scraper/internal/credentials"
	"yahoo-comments-scraper/internal/layout"
	"yahoo-comments-scraper/internal/normalize"
	"yahoo-comments-scraper/internal/observability"
)

var columnRe = regexp.MustCompile(`^[A-Z]{1,3}$`)

// Client — входная таблица со ссылками и выходная таблица с результатами
type Client struct {
	svc         *sheets.Service
	inputID     string
	outputID    string
	urlColumn   string
	urlIndex    int
	countColumn string
	minRows     int
	minCols     int
	logger      *observability.Logger
}

// InputURL — ссылка и номер строки входного листа (с 1), где она стоит
type InputURL struct {
	Row int
	URL string
}

// Input — входной лист целиком и ссылки из колонки urlColumn
type Input struct {
	Rows [][]string
	URLs []InputURL
}

func NewClient(ctx context.Context, creds *credentials.Credentials, cfg config.SpreadsheetConfig, logger *observability.Logger) (*Client, error) {
	svc, err := sheets.NewService(ctx, creds.ClientOptions(sheets.SpreadsheetsScope)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newClient(svc, cfg, logger)
}

func newClient(svc *sheets.Service, cfg config.SpreadsheetConfig, logger *observability.Logger) (*Client, error) {
	column, err := columnLabel("spreadsheet.url_column", cfg.URLColumn)
	if err != nil {
		return nil, err
	}
	index, err := layout.ColumnNumber(column)
	if err != nil {
		return nil, err
	}

	countColumn := cfg.CountColumn
	if countColumn == "" {
		countColumn = "F"
	}
	countColumn, err = columnLabel("spreadsheet.count_column", countColumn)
	if err != nil {
		return nil, err
	}

	return &Client{
		svc:         svc,
		inputID:     cfg.InputID,
		outputID:    cfg.OutputID,
		urlColumn:   column,
		urlIndex:    index,
		countColumn: countColumn,
		minRows:     cfg.SheetRows,
		minCols:     cfg.SheetCols,
		logger:      logger,
	}, nil
}

func columnLabel(field, raw string) (string, error) {
	column := strings.ToUpper(strings.TrimSpace(raw))
	if !columnRe.MatchString(column) {
		return "", fmt.Errorf("%s %q is not a column label", field, raw)
	}
	return column, nil
}

// ReadInput читает лист sheetName целиком. Ссылки берутся из колонки
// urlColumn, начиная со второй строки; первая строка — заголовок.
func (c *Client) ReadInput(ctx context.Context, sheetName string) (*Input, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.inputID, layout.QuoteSheet(sheetName)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read input sheet %q: %w", sheetName, err)
	}

	in := &Input{
		Rows: ToStrings(resp.Values),
		URLs: ExtractURLs(resp.Values, c.urlIndex),
	}

	c.logger.Info("Input URLs loaded",
		"sheet", sheetName,
		"column", c.urlColumn,
		"rows", len(in.Rows),
		"urls", len(in.URLs),
	)

	return in, nil
}

// WriteCounts пишет значения в колонку countColumn входного листа одним
// batchUpdate. Ключ — номер строки.
func (c *Client) WriteCounts(ctx context.Context, sheetName string, counts map[int]any) error {
	if len(counts) == 0 {
		return nil
	}

	rows := make([]int, 0, len(counts))
	for row := range counts {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	data := make([]*sheets.ValueRange, 0, len(rows))
	for _, row := range rows {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", layout.QuoteSheet(sheetName), c.countColumn, row),
			Values: [][]interface{}{{counts[row]}},
		})
	}

	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.inputID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write counts to input sheet %q: %w", sheetName, err)
	}

	c.logger.Info("Comment counts written back",
		"sheet", sheetName,
		"column", c.countColumn,
		"cells", len(data),
	)

	return nil
}

// ReplaceSheet удаляет одноимённый лист, создаёт новый нужного размера
// и пишет всю сетку одним запросом
func (c *Client) ReplaceSheet(ctx context.Context, sheetName string, grid *layout.Grid) error {
	ss, err := c.svc.Spreadsheets.Get(c.outputID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get output spreadsheet: %w", err)
	}

	var requests []*sheets.Request
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			requests = append(requests, &sheets.Request{
				DeleteSheet: &sheets.DeleteSheetRequest{
					SheetId: sh.Properties.SheetId,
					// sheetId 0 иначе не уйдёт в JSON
					ForceSendFields: []string{"SheetId"},
				},
			})
		}
	}

	rows, cols := grid.Size()
	requests = append(requests, &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: sheetName,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(max(rows, c.minRows)),
					ColumnCount: int64(max(cols, c.minCols)),
				},
			},
		},
	})

	_, err = c.svc.Spreadsheets.BatchUpdate(c.outputID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to recreate sheet %q: %w", sheetName, err)
	}

	rng, err := grid.A1Range(sheetName)
	if err != nil {
		return err
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.outputID, rng, &sheets.ValueRange{
		Values: ToValues(grid),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", sheetName, err)
	}

	c.logger.Info("Output sheet written",
		"sheet", sheetName,
		"range", rng,
		"replaced", len(requests) > 1,
	)

	return nil
}

// ExtractURLs берёт из колонки column (с 1) значения, похожие на http(s)
// ссылки, пропуская строку заголовка
func ExtractURLs(values [][]interface{}, column int) []InputURL {
	var urls []InputURL
	for i, row := range values {
		if i == 0 || column <= 0 || len(row) < column {
			continue
		}
		raw, ok := row[column-1].(string)
		if !ok || !normalize.IsHTTPURL(raw) {
			continue
		}
		urls = append(urls, InputURL{Row: i + 1, URL: normalize.NormalizeURL(raw)})
	}
	return urls
}

// ToStrings — ответ Sheets API как строки, для копии входного листа
func ToStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows
}

// ToValues — плотный прямоугольник сетки в формате Sheets API (строки снаружи)
func ToValues(grid *layout.Grid) [][]interface{} {
	rows := grid.Rows()
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return values
}

