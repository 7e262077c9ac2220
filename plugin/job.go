package plugin

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

type (
	// Job is the YAML form of a method call run by the exec command.
	//
	//	method: readRows
	//	continueOnFail: false
	//	processor:
	//	  auto-save: true
	//	items:
	//	  - json: {}
	//	    binary:
	//	      data: {file: customers.xlsx}
	//	params:
	//	  - inputMode: binaryData
	Job struct {
		Method         string                   `yaml:"method"`
		ContinueOnFail bool                     `yaml:"continueOnFail"`
		Processor      map[string]interface{}   `yaml:"processor"`
		Items          []JobItem                `yaml:"items"`
		Params         []map[string]interface{} `yaml:"params"`
	}

	JobItem struct {
		JSON   map[string]interface{} `yaml:"json"`
		Binary map[string]JobBinary   `yaml:"binary"`
	}

	// JobBinary references a file whose content becomes a binary property.
	JobBinary struct {
		File     string `yaml:"file"`
		MimeType string `yaml:"mimeType"`
	}
)

// LoadJob reads a job file. Relative binary file references are resolved
// against the directory of the job file.
func LoadJob(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job %s: %w", path, err)
	}
	job, err := ParseJob(raw)
	if err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range job.Items {
		for name, b := range job.Items[i].Binary {
			if b.File != "" && !filepath.IsAbs(b.File) {
				b.File = filepath.Join(dir, b.File)
				job.Items[i].Binary[name] = b
			}
		}
	}
	return job, nil
}

func ParseJob(raw []byte) (*Job, error) {
	job := &Job{}
	if err := yaml.Unmarshal(raw, job); err != nil {
		return nil, err
	}
	if job.Method == "" {
		return nil, fmt.Errorf("job without method")
	}
	return job, nil
}

// Request loads the referenced binary files and builds the method call.
func (j *Job) Request() (*Request, error) {
	req := &Request{
		Method:         j.Method,
		ContinueOnFail: j.ContinueOnFail,
		Params:         j.Params,
	}
	for _, it := range j.Items {
		item := &schema.Item{JSON: it.JSON}
		if item.JSON == nil {
			item.JSON = map[string]interface{}{}
		}
		for name, b := range it.Binary {
			data, err := os.ReadFile(b.File)
			if err != nil {
				return nil, fmt.Errorf("binary property %s: %w", name, err)
			}
			mimeType := b.MimeType
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(b.File))
			}
			if item.Binary == nil {
				item.Binary = map[string]*schema.Binary{}
			}
			item.Binary[name] = &schema.Binary{
				ID:       uuid.NewString(),
				FileName: filepath.Base(b.File),
				MimeType: mimeType,
				Data:     data,
			}
		}
		req.Items = append(req.Items, item)
	}
	return req, nil
}

// WriteBinaries stores the binary properties of the result items in dir as
// <item>-<property>-<file name> and returns the written paths.
func WriteBinaries(dir string, items []*schema.Item) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	written := []string{}
	for i, item := range items {
		for name, b := range item.Binary {
			path := filepath.Join(dir, fmt.Sprintf("%d-%s-%s", i, name, b.FileName))
			if err := os.WriteFile(path, b.Data, 0o644); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}
