package excel

import (
	"strings"

	excelize "github.com/xuri/excelize/v2"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

// https://xuri.me/excelize/en/cell.html#SetCellStyle
var excel_header_style = map[string]*schema.Schema{
	"bold":       {Type: schema.TypeBool, Optional: true, DefaultValue: false},
	"italic":     {Type: schema.TypeBool, Optional: true, DefaultValue: false},
	"font-color": {Type: schema.TypeString, Optional: true, DefaultValue: ""},
	"fill-color": {Type: schema.TypeString, Optional: true, DefaultValue: ""},
	"wrap-text":  {Type: schema.TypeBool, Optional: true, DefaultValue: false},
	"horizontal": {Type: schema.TypeString, Optional: true, DefaultValue: "", Options: []string{"", "left", "center", "right"}},
	// bottom border line below the header
	"border-color": {Type: schema.TypeString, Optional: true, DefaultValue: ""},
}

// excel_style_header turns the headerStyle parameter into an excelize style.
// It returns nil when the parameter asks for nothing.
func excel_style_header(v interface{}) *excelize.Style {
	style, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	bold, _ := style["bold"].(bool)
	italic, _ := style["italic"].(bool)
	wrap, _ := style["wrap-text"].(bool)
	fontColor, _ := style["font-color"].(string)
	fillColor, _ := style["fill-color"].(string)
	horizontal, _ := style["horizontal"].(string)
	borderColor, _ := style["border-color"].(string)
	if !bold && !italic && !wrap && fontColor == "" && fillColor == "" && horizontal == "" && borderColor == "" {
		return nil
	}
	s := &excelize.Style{}
	if bold || italic || fontColor != "" {
		s.Font = &excelize.Font{
			Bold:   bold,
			Italic: italic,
			Color:  strings.TrimPrefix(fontColor, "#"),
		}
	}
	if fillColor != "" {
		s.Fill = excel_style_fill(fillColor)
	}
	if wrap || horizontal != "" {
		s.Alignment = &excelize.Alignment{WrapText: wrap, Horizontal: horizontal}
	}
	if borderColor != "" {
		s.Border = []excelize.Border{{Type: "bottom", Color: strings.TrimPrefix(borderColor, "#"), Style: 1}}
	}
	return s
}

// excel_style_fill builds a solid pattern fill, or a gradient when two
// comma separated colors are given.
func excel_style_fill(colors string) excelize.Fill {
	parts := []string{}
	for _, c := range strings.Split(colors, ",") {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) > 1 {
		return excelize.Fill{Type: "gradient", Color: parts[:2], Shading: 1}
	}
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: parts}
}

// applyHeaderStyle styles row 1 from column 1 to width.
func applyHeaderStyle(f *excelize.File, sheet string, width int, style *excelize.Style) error {
	if style == nil || width == 0 {
		return nil
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, id)
}
