package excel

import (
	"context"
	"fmt"
	"regexp"

	excelize "github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

var (
	excel_worksheet_name = map[string]*schema.Schema{
		"worksheetName": {Type: schema.TypeString, Optional: true, DefaultValue: "", Description: "Existing worksheet the operation works on."},
	}
	excel_new_sheet_name = map[string]*schema.Schema{
		"newSheetName": {Type: schema.TypeString, Required: true},
	}
	excel_column_info = map[string]*schema.Schema{
		"index":  {Type: schema.TypeInt, Required: true},
		"letter": {Type: schema.TypeString, Required: true},
		"header": {Type: schema.TypeString, Required: true},
		"width":  {Type: schema.TypeFloat, Required: true},
	}
)

var Method_list_worksheets = &schema.Method{
	Schema: withSchema(excel_common, map[string]*schema.Schema{
		"includeHidden": {Type: schema.TypeBool, Optional: true, DefaultValue: false},
		"namePattern":   {Type: schema.TypeString, Optional: true, DefaultValue: "", Description: "Regular expression the listed worksheet names must match."},
	}),
	Result: map[string]*schema.Schema{
		"operation": {Type: schema.TypeString, Required: true},
		"count":     {Type: schema.TypeInt, Required: true},
		"worksheets": {
			Type: schema.TypeList,
			Elem: map[string]*schema.Schema{
				"id":          {Type: schema.TypeInt, Required: true},
				"name":        {Type: schema.TypeString, Required: true},
				"rowCount":    {Type: schema.TypeInt, Required: true},
				"columnCount": {Type: schema.TypeInt, Required: true},
				"state":       {Type: schema.TypeString, Required: true},
			},
		},
	},
	ExecFunc: opListWorksheets.exec(),
	Description: `Method listWorksheets lists the worksheets of a workbook.

	method "listWorksheets" "processor-instance" "method-instance" {
		filePath      = "customers.xlsx"
		includeHidden = true
		namePattern   = "^20[0-9]{2}$"
	}
	`,
}

var Method_create_worksheet = &schema.Method{
	Schema: withSchema(excel_common, excel_new_sheet_name, map[string]*schema.Schema{
		"initialData": {Type: schema.TypeJSON, Optional: true, DefaultValue: "[]", Description: "JSON array of objects, the keys of the first one become the header row."},
		"headerStyle": {Type: schema.TypeMap, Optional: true, Elem: excel_header_style},
	}),
	Result: map[string]*schema.Schema{
		"success":   {Type: schema.TypeBool, Required: true},
		"operation": {Type: schema.TypeString, Required: true},
		"sheetName": {Type: schema.TypeString, Required: true},
		"rowCount":  {Type: schema.TypeInt, Required: true},
		"message":   {Type: schema.TypeString, Required: true},
	},
	ExecFunc: opCreateWorksheet.exec(),
	Description: `Method createWorksheet adds a worksheet, optionally filled with initial data.

	method "createWorksheet" "processor-instance" "method-instance" {
		filePath     = "customers.xlsx"
		newSheetName = "Archive"
		initialData  = "[{\"Name\":\"Ada\",\"Age\":36}]"
		headerStyle {
			bold       = true
			fill-color = "#DDDDDD"
		}
	}
	`,
}

var Method_delete_worksheet = &schema.Method{
	Schema: withSchema(excel_common, excel_worksheet_name),
	Result: map[string]*schema.Schema{
		"success":   {Type: schema.TypeBool, Required: true},
		"operation": {Type: schema.TypeString, Required: true},
		"sheetName": {Type: schema.TypeString, Required: true},
		"message":   {Type: schema.TypeString, Required: true},
	},
	ExecFunc:    opDeleteWorksheet.exec(),
	Description: `Method deleteWorksheet removes a worksheet. The last worksheet of a workbook cannot be removed.`,
}

var Method_rename_worksheet = &schema.Method{
	Schema: withSchema(excel_common, excel_worksheet_name, excel_new_sheet_name),
	Result: map[string]*schema.Schema{
		"success":   {Type: schema.TypeBool, Required: true},
		"operation": {Type: schema.TypeString, Required: true},
		"oldName":   {Type: schema.TypeString, Required: true},
		"newName":   {Type: schema.TypeString, Required: true},
		"message":   {Type: schema.TypeString, Required: true},
	},
	ExecFunc:    opRenameWorksheet.exec(),
	Description: `Method renameWorksheet renames worksheetName to newSheetName.`,
}

var Method_copy_worksheet = &schema.Method{
	Schema: withSchema(excel_common, excel_worksheet_name, excel_new_sheet_name),
	Result: map[string]*schema.Schema{
		"success":    {Type: schema.TypeBool, Required: true},
		"operation":  {Type: schema.TypeString, Required: true},
		"sourceName": {Type: schema.TypeString, Required: true},
		"newName":    {Type: schema.TypeString, Required: true},
		"rowCount":   {Type: schema.TypeInt, Required: true},
		"message":    {Type: schema.TypeString, Required: true},
	},
	ExecFunc:    opCopyWorksheet.exec(),
	Description: `Method copyWorksheet copies values, styles, row heights and column widths of a worksheet into a new one.`,
}

var Method_get_worksheet_info = &schema.Method{
	Schema: withSchema(excel_common, excel_worksheet_name),
	Result: map[string]*schema.Schema{
		"operation":         {Type: schema.TypeString, Required: true},
		"sheetName":         {Type: schema.TypeString, Required: true},
		"rowCount":          {Type: schema.TypeInt, Required: true},
		"columnCount":       {Type: schema.TypeInt, Required: true},
		"actualRowCount":    {Type: schema.TypeInt, Required: true},
		"actualColumnCount": {Type: schema.TypeInt, Required: true},
		"state":             {Type: schema.TypeString, Required: true},
		"columns":           {Type: schema.TypeList, Elem: excel_column_info},
	},
	ExecFunc:    opGetWorksheetInfo.exec(),
	Description: `Method getWorksheetInfo describes the extent and the header columns of a worksheet.`,
}

var (
	opListWorksheets   = &operation{name: "listWorksheets", resource: ResourceWorksheet, handler: excel_list_worksheets}
	opCreateWorksheet  = &operation{name: "createWorksheet", resource: ResourceWorksheet, mutates: true, handler: excel_create_worksheet}
	opDeleteWorksheet  = &operation{name: "deleteWorksheet", resource: ResourceWorksheet, mutates: true, handler: excel_delete_worksheet}
	opRenameWorksheet  = &operation{name: "renameWorksheet", resource: ResourceWorksheet, mutates: true, handler: excel_rename_worksheet}
	opCopyWorksheet    = &operation{name: "copyWorksheet", resource: ResourceWorksheet, mutates: true, handler: excel_copy_worksheet}
	opGetWorksheetInfo = &operation{name: "getWorksheetInfo", resource: ResourceWorksheet, handler: excel_get_worksheet_info}
)

// sheetNamePattern selects worksheets whose name matches a regular
// expression. The empty pattern selects all.
type sheetNamePattern struct {
	expr *regexp.Regexp
}

func newSheetNamePattern(pattern string) (*sheetNamePattern, error) {
	if pattern == "" {
		return &sheetNamePattern{}, nil
	}
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return nil, validationError("Invalid worksheet name pattern %q: %v", pattern, err)
	}
	return &sheetNamePattern{expr: expr}, nil
}

func (p *sheetNamePattern) Test(name string) bool {
	return p.expr == nil || p.expr.MatchString(name)
}

func excel_list_worksheets(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	includeHidden := c.getBool("includeHidden", false)
	pattern, err := newSheetNamePattern(c.getString("namePattern", ""))
	if err != nil {
		return nil, err
	}
	worksheets := []interface{}{}
	for _, e := range sheetEntries(c.file) {
		if !includeHidden && e.state != stateVisible {
			continue
		}
		if !pattern.Test(e.name) {
			continue
		}
		d, err := newWorksheet(c.file, e.name).Dimensions()
		if err != nil {
			return nil, err
		}
		worksheets = append(worksheets, map[string]interface{}{
			"id":          e.id,
			"name":        e.name,
			"rowCount":    d.RowCount,
			"columnCount": d.ColumnCount,
			"state":       e.state,
		})
	}
	return single(map[string]interface{}{
		"operation":  "listWorksheets",
		"count":      len(worksheets),
		"worksheets": worksheets,
	}), nil
}

// newSheetName reads and checks the name of a worksheet to be created.
func newSheetName(c *itemCall) (string, error) {
	name := c.getString("newSheetName", "")
	if name == "" {
		return "", configError("New worksheet name is required")
	}
	if sheetExists(c.file, name) {
		return "", configError("Worksheet %q already exists", name)
	}
	return name, nil
}

func excel_create_worksheet(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	initial, err := ParsePayloadList(c.param("initialData"))
	if err != nil {
		return nil, err
	}
	name, err := newSheetName(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.file.NewSheet(name); err != nil {
		return nil, wrapConfig(err, "Cannot create worksheet %q: %v", name, err)
	}
	ws := newWorksheet(c.file, name)
	if len(initial) > 0 {
		headers := initial[0].Keys()
		header := make([]interface{}, len(headers))
		for i, h := range headers {
			header[i] = h
		}
		if err := ws.WriteRow(1, header, true); err != nil {
			return nil, err
		}
		for i, p := range initial {
			values := make([]interface{}, len(headers))
			for j, h := range headers {
				if v, ok := p.Get(h); ok && v != nil {
					values[j] = v
				} else {
					values[j] = ""
				}
			}
			if err := ws.WriteRow(i+2, values, true); err != nil {
				return nil, err
			}
		}
		if err := applyHeaderStyle(c.file, name, len(headers), excel_style_header(c.param("headerStyle"))); err != nil {
			return nil, fmt.Errorf("style header of %s: %w", name, err)
		}
	}
	rowCount, err := ws.RowCount()
	if err != nil {
		return nil, err
	}
	c.log.Debug("worksheet created", zap.String("sheet", name), zap.Int("rows", rowCount))
	return single(map[string]interface{}{
		"success":   true,
		"operation": "createWorksheet",
		"sheetName": name,
		"rowCount":  rowCount,
		"message":   fmt.Sprintf("Worksheet %q created successfully", name),
	}), nil
}

func excel_delete_worksheet(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	ws, err := requireSheet(c.file, c.getString("worksheetName", ""))
	if err != nil {
		return nil, err
	}
	if c.file.SheetCount <= 1 {
		return nil, configError("Cannot delete worksheet %q, a workbook needs at least one worksheet", ws.Name())
	}
	if err := c.file.DeleteSheet(ws.Name()); err != nil {
		return nil, fmt.Errorf("delete worksheet %s: %w", ws.Name(), err)
	}
	return single(map[string]interface{}{
		"success":   true,
		"operation": "deleteWorksheet",
		"sheetName": ws.Name(),
		"message":   fmt.Sprintf("Worksheet %q deleted successfully", ws.Name()),
	}), nil
}

func excel_rename_worksheet(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	ws, err := requireSheet(c.file, c.getString("worksheetName", ""))
	if err != nil {
		return nil, err
	}
	name, err := newSheetName(c)
	if err != nil {
		return nil, err
	}
	if err := c.file.SetSheetName(ws.Name(), name); err != nil {
		return nil, wrapConfig(err, "Cannot rename worksheet %q: %v", ws.Name(), err)
	}
	return single(map[string]interface{}{
		"success":   true,
		"operation": "renameWorksheet",
		"oldName":   ws.Name(),
		"newName":   name,
		"message":   fmt.Sprintf("Worksheet renamed from %q to %q successfully", ws.Name(), name),
	}), nil
}

func excel_copy_worksheet(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	src, err := requireSheet(c.file, c.getString("worksheetName", ""))
	if err != nil {
		return nil, err
	}
	name, err := newSheetName(c)
	if err != nil {
		return nil, err
	}
	from, err := c.file.GetSheetIndex(src.Name())
	if err != nil {
		return nil, err
	}
	to, err := c.file.NewSheet(name)
	if err != nil {
		return nil, wrapConfig(err, "Cannot create worksheet %q: %v", name, err)
	}
	if err := c.file.CopySheet(from, to); err != nil {
		return nil, fmt.Errorf("copy worksheet %s: %w", src.Name(), err)
	}
	rowCount, err := newWorksheet(c.file, name).RowCount()
	if err != nil {
		return nil, err
	}
	return single(map[string]interface{}{
		"success":    true,
		"operation":  "copyWorksheet",
		"sourceName": src.Name(),
		"newName":    name,
		"rowCount":   rowCount,
		"message":    fmt.Sprintf("Worksheet %q copied to %q successfully", src.Name(), name),
	}), nil
}

func excel_get_worksheet_info(ctx context.Context, c *itemCall) ([]map[string]interface{}, error) {
	ws, err := requireSheet(c.file, c.getString("worksheetName", ""))
	if err != nil {
		return nil, err
	}
	d, err := ws.Dimensions()
	if err != nil {
		return nil, err
	}
	cells, err := ws.HeaderCells()
	if err != nil {
		return nil, err
	}
	columns := []interface{}{}
	for i, cell := range cells {
		if cell == nil {
			continue
		}
		col := i + 1
		letter, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, err
		}
		width, err := ws.ColumnWidth(col)
		if err != nil {
			return nil, err
		}
		columns = append(columns, map[string]interface{}{
			"index":  col,
			"letter": letter,
			"header": stringify(cell),
			"width":  width,
		})
	}
	return single(map[string]interface{}{
		"operation":         "getWorksheetInfo",
		"sheetName":         ws.Name(),
		"rowCount":          d.RowCount,
		"columnCount":       d.ColumnCount,
		"actualRowCount":    d.ActualRowCount,
		"actualColumnCount": d.ActualColumnCount,
		"state":             ws.State(),
		"columns":           columns,
	}), nil
}
