package main

import (
	"sbl.system/synwork/synwork-processor-excelai/excel"
	"sbl.system/synwork/synwork-processor-excelai/plugin"
)

func main() {
	plugin.Serve(excel.Opts)
}
