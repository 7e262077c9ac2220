package excel

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cast"
	excelize "github.com/xuri/excelize/v2"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

// Load option sources never fail. Problems are reported as a single option
// the host shows in place of the dropdown entries.

func excel_load_worksheets(ctx context.Context, config map[string]interface{}, client interface{}) ([]schema.PropertyOption, error) {
	if mode := cast.ToString(config["inputMode"]); mode != "" && mode != ModeFilePath {
		return []schema.PropertyOption{{Name: "Sheet name only available in file path mode", Value: ""}}, nil
	}
	path := cast.ToString(config["filePath"])
	if strings.TrimSpace(path) == "" {
		return []schema.PropertyOption{{Name: "⚠ Please specify file path first", Value: errorSheetName}}, nil
	}
	fileError := []schema.PropertyOption{{
		Name:  "⚠ File path error: Please enter a valid path, then click here to select a worksheet",
		Value: errorSheetName,
	}}
	if _, err := os.Stat(path); err != nil {
		return fileError, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fileError, nil
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []schema.PropertyOption{{Name: "⚠ No worksheets found in the specified file", Value: errorSheetName}}, nil
	}
	options := make([]schema.PropertyOption, 0, len(sheets))
	for _, name := range sheets {
		options = append(options, schema.PropertyOption{Name: name, Value: name})
	}
	return options, nil
}

func excel_load_columns(ctx context.Context, config map[string]interface{}, client interface{}) ([]schema.PropertyOption, error) {
	if mode := cast.ToString(config["inputMode"]); mode != "" && mode != ModeFilePath {
		return []schema.PropertyOption{{Name: "Column detection only available in file path mode", Value: ""}}, nil
	}
	path := cast.ToString(config["filePath"])
	sheet := cast.ToString(config["sheetName"])
	if path == "" || sheet == "" || sheet == errorSheetName {
		return []schema.PropertyOption{{Name: "Please specify file path and sheet name first", Value: ""}}, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return []schema.PropertyOption{{Name: "Error: " + err.Error(), Value: ""}}, nil
	}
	defer f.Close()
	name, ok := lookupSheet(f, sheet)
	if !ok {
		return []schema.PropertyOption{{Name: "Sheet not found", Value: ""}}, nil
	}
	h, err := newWorksheet(f, name).Header()
	if err != nil {
		return []schema.PropertyOption{{Name: "Error: " + err.Error(), Value: ""}}, nil
	}
	if h.Len() == 0 {
		return []schema.PropertyOption{{Name: "No columns found", Value: ""}}, nil
	}
	options := make([]schema.PropertyOption, 0, h.Len())
	for _, col := range h.Names() {
		options = append(options, schema.PropertyOption{Name: col, Value: col})
	}
	return options, nil
}
