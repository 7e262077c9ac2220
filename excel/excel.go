package excel

import (
	"context"

	"github.com/spf13/cast"
	"sbl.system/synwork/synwork-processor-excelai/plugin"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

// Client holds the processor level settings shared by all method calls.
type Client struct {
	// AutoSave is the default of the autoSave method parameter.
	AutoSave bool
	// MaxRows caps the rows a read or filter may return, 0 means no limit.
	MaxRows int
}

var Opts = plugin.PluginOptions{
	Provider: func() schema.Processor {
		return schema.Processor{
			Schema: map[string]*schema.Schema{
				"auto-save": {Type: schema.TypeBool, Optional: true, DefaultValue: true},
				"max-rows":  {Type: schema.TypeInt, Optional: true, DefaultValue: 0},
			},
			MethodMap: map[string]*schema.Method{
				"readRows":         Method_read_rows,
				"filterRows":       Method_filter_rows,
				"findRows":         Method_find_rows,
				"appendRow":        Method_append_row,
				"insertRow":        Method_insert_row,
				"updateRow":        Method_update_row,
				"deleteRow":        Method_delete_row,
				"listWorksheets":   Method_list_worksheets,
				"createWorksheet":  Method_create_worksheet,
				"deleteWorksheet":  Method_delete_worksheet,
				"renameWorksheet":  Method_rename_worksheet,
				"copyWorksheet":    Method_copy_worksheet,
				"getWorksheetInfo": Method_get_worksheet_info,
			},
			LoadOptions: map[string]schema.LoadOptionsFunc{
				"getWorksheets": excel_load_worksheets,
				"getColumns":    excel_load_columns,
			},
			InitFunc: excel_initfunc,
		}
	},
}

func excel_initfunc(ctx context.Context, config map[string]interface{}) (interface{}, error) {
	client := &Client{AutoSave: true}
	if v, ok := config["auto-save"]; ok {
		client.AutoSave = cast.ToBool(v)
	}
	if v, ok := config["max-rows"]; ok {
		client.MaxRows, _ = schema.ToIntE(v)
	}
	if client.MaxRows < 0 {
		client.MaxRows = 0
	}
	return client, nil
}

// clientOf accepts the value returned by excel_initfunc, falling back to the
// defaults when a host calls a method without initializing the processor.
func clientOf(client interface{}) *Client {
	if c, ok := client.(*Client); ok && c != nil {
		return c
	}
	return &Client{AutoSave: true}
}
