// Package export builds the spreadsheet downloads offered on the host
// panel. Workbooks are returned as raw bytes; the gateway base64-encodes
// them into the download message.
package export

import (
	"fmt"

	"github.com/acmilanman/chgk/internal/game"
	"github.com/xuri/excelize/v2"
)

// Teams builds an xlsx workbook with one Teams sheet listing team names.
func Teams(teams []game.Team) ([]byte, error) {
	rows := make([][]any, 0, len(teams)+1)
	rows = append(rows, []any{"Name"})
	for _, t := range teams {
		rows = append(rows, []any{t.Name})
	}
	return workbook("Teams", rows)
}

// Questions builds an xlsx workbook with the full question catalogue,
// image data URLs included, so a round-trip through import loses nothing.
func Questions(questions []game.Question) ([]byte, error) {
	rows := make([][]any, 0, len(questions)+1)
	rows = append(rows, []any{"Question", "Answer", "Comment", "HandoutImage", "CommentImage"})
	for _, q := range questions {
		rows = append(rows, []any{q.Text, q.Answer, q.Comment, q.HandoutImage, q.CommentImage})
	}
	return workbook("Questions", rows)
}

func workbook(sheet string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
