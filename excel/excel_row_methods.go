package excel

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

var (
	excel_common = map[string]*schema.Schema{
		"inputMode": {
			Type: schema.TypeString, Optional: true, DefaultValue: ModeFilePath,
			Options:     []string{ModeFilePath, ModeBinaryData},
			Description: "Where the workbook comes from: a file on disk or a binary property of the item.",
		},
		"filePath":           {Type: schema.TypeString, Optional: true, DefaultValue: "", Description: "Path of the .xlsx file in filePath mode."},
		"binaryPropertyName": {Type: schema.TypeString, Optional: true, DefaultValue: OutputBinaryProperty, Description: "Binary property holding the workbook in binaryData mode."},
		"autoSave":           {Type: schema.TypeBool, Optional: true, Description: "Write changes back to filePath. Defaults to the processor's auto-save."},
	}
	excel_sheet_name = map[string]*schema.Schema{
		"sheetName": {Type: schema.TypeString, Optional: true, DefaultValue: "", Description: "Worksheet to work on, the first one when empty."},
	}
	excel_condition = map[string]*schema.Schema{
		"field":    {Type: schema.TypeString, Required: true},
		"operator": {Type: schema.TypeString, Required: true, Description: strings.Join(Operators, ", ")},
		"value":    {Type: schema.TypeGeneric, Optional: true},
	}
	excel_row_record = map[string]*schema.Schema{
		rowNumberKey: {Type: schema.TypeInt, Required: true},
	}
)

// withSchema merges parameter schemas, later ones win.
func withSchema(parts ...map[string]*schema.Schema) map[string]*schema.Schema {
	s := map[string]*schema.Schema{}
	for _, p := range parts {
		for k, v := range p {
			s[k] = v
		}
	}
	return s
}

var Method_read_rows = &schema.Method{
	Schema: withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
		"startRow": {Type: schema.TypeInt, Optional: true, DefaultValue: 2},
		"endRow":   {Type: schema.TypeInt, Optional: true, DefaultValue: 0},
	}),
	Result:   excel_row_record,
	ExecFunc: opReadRows.exec(),
	Description: `Method readRows returns the data rows of a worksheet, one result item per row.

	method "readRows" "processor-instance" "method-instance" {
		filePath  = "customers.xlsx"
		sheetName = "Customers"
		startRow  = 2
		endRow    = 0 // up to the last row
	}

	Every item holds the header names of row 1 as keys and the row number as _rowNumber.
	Rows without any truthy value are skipped.
	`,
}

var Method_filter_rows = &schema.Method{
	Schema:   excel_filter_schema,
	Result:   excel_row_record,
	ExecFunc: opFilterRows.exec(),
	Description: `Method filterRows returns the data rows matching a list of conditions.

	method "filterRows" "processor-instance" "method-instance" {
		filePath = "customers.xlsx"
		filterConditions {
			field    = "Department"
			operator = "equals"
			value    = "Engineering"
		}
		filterConditions {
			field    = "Status"
			operator = "equals"
			value    = "Active"
		}
		conditionLogic = "and"
	}

	Operators: equals, notEquals, contains, notContains, greaterThan, greaterOrEqual,
	lessThan, lessOrEqual, startsWith, endsWith, isEmpty, isNotEmpty.
	A condition on a column the worksheet does not have fails the call.
	`,
}

var Method_find_rows = &schema.Method{
	Schema:      excel_filter_schema,
	Result:      excel_row_record,
	ExecFunc:    opFindRows.exec(),
	Description: `Method findRows is filterRows under the name of the find verb.`,
}

var excel_filter_schema = withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
	"filterConditions": {Type: schema.TypeList, Optional: true, Elem: excel_condition},
	"conditionLogic":   {Type: schema.TypeString, Optional: true, DefaultValue: LogicAnd, Options: []string{LogicAnd, LogicOr}},
})

var Method_append_row = &schema.Method{
	Schema: withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
		"rowData": {Type: schema.TypeJSON, Required: true, Description: "JSON object keyed by column name."},
	}),
	Result: map[string]*schema.Schema{
		"success":           {Type: schema.TypeBool, Required: true},
		"operation":         {Type: schema.TypeString, Required: true},
		"rowNumber":         {Type: schema.TypeInt, Required: true},
		"data":              {Type: schema.TypeMap, Required: true},
		"message":           {Type: schema.TypeString, Required: true},
		"wasEmptyRowReused": {Type: schema.TypeBool, Required: true},
	},
	ExecFunc: opAppendRow.exec(),
	Description: `Method appendRow writes a row after the last row, or into the last row when that
	row exists but holds no value.

	method "appendRow" "processor-instance" "method-instance" {
		filePath = "customers.xlsx"
		rowData  = "{\"Name\":\"Ada\",\"Age\":\"36\",\"Joined\":\"2024-01-15\"}"
	}

	String values are converted: numbers, booleans, ISO dates, "" and "null" as empty cell.
	`,
}

var Method_insert_row = &schema.Method{
	Schema: withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
		"rowNumber": {Type: schema.TypeInt, Required: true},
		"rowData":   {Type: schema.TypeJSON, Required: true},
	}),
	Result: map[string]*schema.Schema{
		"success":   {Type: schema.TypeBool, Required: true},
		"operation": {Type: schema.TypeString, Required: true},
		"rowNumber": {Type: schema.TypeInt, Required: true},
		"data":      {Type: schema.TypeMap, Required: true},
		"message":   {Type: schema.TypeString, Required: true},
	},
	ExecFunc:    opInsertRow.exec(),
	Description: `Method insertRow inserts a row at rowNumber (2 or more), shifting the rows below down.`,
}

var Method_update_row = &schema.Method{
	Schema: withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
		"rowNumber":   {Type: schema.TypeInt, Required: true},
		"updatedData": {Type: schema.TypeJSON, Required: true},
	}),
	Result: map[string]*schema.Schema{
		"success":       {Type: schema.TypeBool, Required: true},
		"operation":     {Type: schema.TypeString, Required: true},
		"rowNumber":     {Type: schema.TypeInt, Required: true},
		"updatedFields": {Type: schema.TypeList, Required: true},
		"message":       {Type: schema.TypeString, Required: true},
		"skippedFields": {Type: schema.TypeList, Optional: true},
		"warning":       {Type: schema.TypeString, Optional: true},
	},
	ExecFunc: opUpdateRow.exec(),
	Description: `Method updateRow overwrites the given columns of row rowNumber. Keys that are no
	column of the worksheet are reported in skippedFields.`,
}

var Method_delete_row = &schema.Method{
	Schema: withSchema(excel_common, excel_sheet_name, map[string]*schema.Schema{
		"rowNumber": {Type: schema.TypeInt, Required: true},
	}),
	Result: map[string]*schema.Schema{
		"success":   {Type: schema.TypeBool, Required: true},
		"operation": {Type: schema.TypeString, Required: true},
		"rowNumber": {Type: schema.TypeInt, Required: true},
		"message":   {Type: schema.TypeString, Required: true},
	},
	ExecFunc:    opDeleteRow.exec(),
	Description: `Method deleteRow removes row rowNumber (2 or more), shifting the rows below up.`,
}

var (
	opReadRows   = &operation{name: "readRows", resource: ResourceRow, readOnly: true, handler: rowHandler(excel_read_rows)}
	opFilterRows = &operation{name: "filterRows", resource: ResourceRow, readOnly: true, handler: rowHandler(excel_filter_rows)}
	opFindRows   = &operation{name: "findRows", resource: ResourceRow, readOnly: true, handler: rowHandler(excel_filter_rows)}
	opAppendRow  = &operation{name: "appendRow", resource: ResourceRow, mutates: true, handler: rowHandler(excel_append_row)}
	opInsertRow  = &operation{name: "insertRow", resource: ResourceRow, mutates: true, handler: rowHandler(excel_insert_row)}
	opUpdateRow  = &operation{name: "updateRow", resource: ResourceRow, mutates: true, handler: rowHandler(excel_update_row)}
	opDeleteRow  = &operation{name: "deleteRow", resource: ResourceRow, mutates: true, handler: rowHandler(excel_delete_row)}
)

type rowFunc func(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error)

// rowHandler resolves worksheet and header before calling fn.
func rowHandler(fn rowFunc) handlerFunc {
	return func(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
		ws, err := resolveSheet(c.file, c.getString("sheetName", ""))
		if err != nil {
			return nil, err
		}
		h, err := ws.Header()
		if err != nil {
			return nil, err
		}
		c.log.Debug("worksheet resolved", zap.String("sheet", ws.Name()), zap.Int("columns", h.Len()))
		return fn(ctx, c, ws, h)
	}
}

func records(rows []RowRecord) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		result = append(result, map[string]interface{}(r))
	}
	return result
}

func single(m map[string]interface{}) []map[string]interface{} {
	return []map[string]interface{}{m}
}

func excel_read_rows(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	rows, err := ws.ProjectRows(h, c.getInt("startRow", 2), c.getInt("endRow", 0), c.client.MaxRows)
	if err != nil {
		return nil, err
	}
	c.log.Debug("rows projected", zap.Int("rows", len(rows)))
	return records(rows), nil
}

func excel_filter_rows(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	flt := &Filter{
		Conditions: ParseConditions(c.param("filterConditions")),
		Logic:      c.getString("conditionLogic", LogicAnd),
	}
	if err := flt.Validate(h); err != nil {
		return nil, err
	}
	rows, err := ws.ProjectRows(h, 2, 0, 0)
	if err != nil {
		return nil, err
	}
	matched := flt.Apply(rows)
	if limit := c.client.MaxRows; limit > 0 && len(matched) > limit {
		return nil, configError("Filter on worksheet %q matches %d rows, more than max-rows %d", ws.Name(), len(matched), limit)
	}
	c.log.Debug("rows matched", zap.Int("rows", len(rows)), zap.Int("matched", len(matched)))
	return records(matched), nil
}

func excel_append_row(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	data, err := ParsePayload(c.param("rowData"))
	if err != nil {
		return nil, err
	}
	values := MapRowData(data, h)
	last, err := ws.RowCount()
	if err != nil {
		return nil, err
	}
	rowNumber, reused := last+1, false
	if last > 1 {
		if empty, err := ws.IsRowEmpty(last); err != nil {
			return nil, err
		} else if empty {
			rowNumber, reused = last, true
		}
	}
	if err := ws.WriteRow(rowNumber, values, true); err != nil {
		return nil, err
	}
	message := fmt.Sprintf("Row added successfully at row %d", rowNumber)
	if reused {
		message += " (reused empty row)"
	}
	return single(map[string]interface{}{
		"success":           true,
		"operation":         "appendRow",
		"rowNumber":         rowNumber,
		"data":              data.Map(),
		"message":           message,
		"wasEmptyRowReused": reused,
	}), nil
}

func excel_insert_row(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	rowNumber := c.getInt("rowNumber", 0)
	data, err := ParsePayload(c.param("rowData"))
	if err != nil {
		return nil, err
	}
	if rowNumber < 2 {
		return nil, configError("Cannot insert before header row (row 1)")
	}
	if err := c.file.InsertRows(ws.Name(), rowNumber, 1); err != nil {
		return nil, fmt.Errorf("insert row %d: %w", rowNumber, err)
	}
	if err := ws.WriteRow(rowNumber, MapRowData(data, h), true); err != nil {
		return nil, err
	}
	return single(map[string]interface{}{
		"success":   true,
		"operation": "insertRow",
		"rowNumber": rowNumber,
		"data":      data.Map(),
		"message":   fmt.Sprintf("Row inserted successfully at row %d", rowNumber),
	}), nil
}

func excel_update_row(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	rowNumber := c.getInt("rowNumber", 0)
	data, err := ParsePayload(c.param("updatedData"))
	if err != nil {
		return nil, err
	}
	if rowNumber < 2 {
		return nil, configError("Cannot update header row (row 1)")
	}
	updated, skipped := SplitFields(data, h)
	for _, name := range updated {
		col, _ := h.Column(name)
		v, _ := data.Get(name)
		if err := ws.WriteCell(col, rowNumber, ConvertValue(v)); err != nil {
			return nil, err
		}
	}
	result := map[string]interface{}{
		"success":       true,
		"operation":     "updateRow",
		"rowNumber":     rowNumber,
		"updatedFields": updated,
		"message":       fmt.Sprintf("Row %d updated successfully", rowNumber),
	}
	if len(skipped) > 0 {
		result["skippedFields"] = skipped
		result["warning"] = "The following fields were not found in the worksheet and were skipped: " + strings.Join(skipped, ", ")
		c.log.Warn("fields skipped", zap.Int("row", rowNumber), zap.Strings("fields", skipped))
	}
	return single(result), nil
}

func excel_delete_row(ctx context.Context, c *itemCall, ws *Worksheet, h *HeaderMap) ([]map[string]interface{}, error) {
	rowNumber := c.getInt("rowNumber", 0)
	if rowNumber < 2 {
		return nil, configError("Cannot delete header row (row 1)")
	}
	if err := c.file.RemoveRow(ws.Name(), rowNumber); err != nil {
		return nil, fmt.Errorf("delete row %d: %w", rowNumber, err)
	}
	return single(map[string]interface{}{
		"success":   true,
		"operation": "deleteRow",
		"rowNumber": rowNumber,
		"message":   fmt.Sprintf("Row %d deleted successfully", rowNumber),
	}), nil
}
