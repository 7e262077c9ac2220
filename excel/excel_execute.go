package excel

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	excelize "github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

const (
	ModeFilePath   = "filePath"
	ModeBinaryData = "binaryData"

	ResourceRow       = "row"
	ResourceWorksheet = "worksheet"

	// OutputBinaryProperty is the binary property carrying the modified
	// workbook in binary mode.
	OutputBinaryProperty = "data"
	OutputFileName       = "modified.xlsx"
	XlsxMimeType         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type (
	// operation binds a method name to its handler. Read-only operations
	// run once with the parameters of item 0, all others once per item.
	operation struct {
		name     string
		resource string
		readOnly bool
		mutates  bool
		handler  handlerFunc
	}

	handlerFunc func(ctx context.Context, c *itemCall) ([]map[string]interface{}, error)

	// itemCall is the state of one item of a method call.
	itemCall struct {
		data   *schema.MethodData
		index  int
		client *Client
		file   *excelize.File
		log    *zap.Logger
	}
)

func (c *itemCall) getString(name, fallback string) string {
	return c.data.GetString(c.index, name, fallback)
}

func (c *itemCall) getInt(name string, fallback int) int {
	return c.data.GetInt(c.index, name, fallback)
}

func (c *itemCall) getBool(name string, fallback bool) bool {
	return c.data.GetBool(c.index, name, fallback)
}

func (c *itemCall) param(name string) interface{} {
	return c.data.GetItemConfig(c.index, name)
}

func (op *operation) exec() schema.ExecFunc {
	return func(ctx context.Context, data *schema.MethodData, client interface{}) error {
		cl := clientOf(client)
		log := data.Logger().With(zap.String("resource", op.resource))
		count := data.ItemCount()
		if op.readOnly {
			count = 1
		}
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := op.runItem(ctx, data, cl, i, log.With(zap.Int("item", i)))
			if err == nil {
				continue
			}
			if !data.ContinueOnFail() {
				return err
			}
			log.Warn("item failed, continuing", zap.Int("item", i), zap.Error(err))
			data.AddResult(map[string]interface{}{}, nil)
			data.SetResult("error", err.Error())
			data.SetResult("resource", op.resource)
			data.SetResult("operation", op.name)
		}
		return nil
	}
}

func (op *operation) runItem(ctx context.Context, data *schema.MethodData, cl *Client, index int, log *zap.Logger) error {
	if err := data.ItemError(index); err != nil {
		return &OperationError{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}
	mode := data.GetString(index, "inputMode", ModeFilePath)
	f, path, err := openWorkbook(data, index, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	before := data.ResultCount()
	call := &itemCall{data: data, index: index, client: cl, file: f, log: log}
	results, err := op.handler(ctx, call)
	if err != nil {
		return err
	}
	for _, r := range results {
		data.AddResult(r, nil)
	}
	log.Debug("operation done", zap.Int("results", len(results)))

	if op.mutates && mode == ModeFilePath && data.GetBool(index, "autoSave", cl.AutoSave) {
		if err := f.SaveAs(path); err != nil {
			return wrapConfig(err, "Cannot save file %q: %v", path, err)
		}
		log.Debug("workbook saved", zap.String("path", path))
	}
	if mode == ModeBinaryData && data.ResultCount() > before {
		buf, err := f.WriteToBuffer()
		if err != nil {
			return err
		}
		data.AttachBinary(OutputBinaryProperty, &schema.Binary{
			ID:       uuid.NewString(),
			FileName: OutputFileName,
			MimeType: XlsxMimeType,
			Data:     buf.Bytes(),
		})
	}
	return nil
}

// openWorkbook loads the workbook of item index from disk or from the
// item's binary property.
func openWorkbook(data *schema.MethodData, index int, mode string) (*excelize.File, string, error) {
	switch mode {
	case ModeFilePath:
		path := data.GetString(index, "filePath", "")
		if path == "" {
			return nil, "", configError("File path is required in filePath mode")
		}
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, "", wrapConfig(err, "Cannot open file %q: %v", path, err)
		}
		return f, path, nil
	case ModeBinaryData:
		prop := data.GetString(index, "binaryPropertyName", OutputBinaryProperty)
		item := data.Item(index)
		if item == nil || item.Binary[prop] == nil {
			return nil, "", configError("No binary data property %q exists on item!", prop)
		}
		f, err := excelize.OpenReader(bytes.NewReader(item.Binary[prop].Data))
		if err != nil {
			return nil, "", wrapConfig(err, "Cannot read workbook from binary property %q: %v", prop, err)
		}
		return f, "", nil
	}
	return nil, "", configError("Unknown input mode %q", mode)
}

func wrapConfig(err error, format string, args ...interface{}) *OperationError {
	opErr := configError(format, args...)
	opErr.Err = err
	return opErr
}
