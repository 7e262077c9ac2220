package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// echoOpts is a processor prefixing the text parameter of every item.
var echoOpts = PluginOptions{
	Provider: func() schema.Processor {
		return schema.Processor{
			Schema: map[string]*schema.Schema{
				"prefix": {Type: schema.TypeString, Optional: true, DefaultValue: "> "},
			},
			MethodMap: map[string]*schema.Method{
				"echo": {
					Schema: map[string]*schema.Schema{
						"text": {Type: schema.TypeString, Required: true},
					},
					ExecFunc: func(ctx context.Context, data *schema.MethodData, client interface{}) error {
						for i := 0; i < data.ItemCount(); i++ {
							if err := data.ItemError(i); err != nil {
								return err
							}
							result := map[string]interface{}{"text": cast.ToString(client) + data.GetString(i, "text", "")}
							data.AddResult(result, data.Item(i).Binary)
						}
						return nil
					},
					Description: "Method echo repeats the text parameter.\n\n\tmore details",
				},
				"fail": {
					ExecFunc: func(ctx context.Context, data *schema.MethodData, client interface{}) error {
						return errors.New("always fails")
					},
					Description: "Method fail fails.",
				},
			},
			LoadOptions: map[string]schema.LoadOptionsFunc{
				"letters": func(ctx context.Context, config map[string]interface{}, client interface{}) ([]schema.PropertyOption, error) {
					return []schema.PropertyOption{{Name: "A", Value: "a"}, {Name: cast.ToString(config["extra"]), Value: "x"}}, nil
				},
			},
			InitFunc: func(ctx context.Context, config map[string]interface{}) (interface{}, error) {
				return config["prefix"], nil
			},
		}
	},
}

func newRunner(t *testing.T, config map[string]interface{}) *Runner {
	t.Helper()
	r, err := NewRunner(context.Background(), echoOpts, config)
	require.NoError(t, err)
	return r
}

func texts(items []*schema.Item) []string {
	result := []string{}
	for _, it := range items {
		result = append(result, cast.ToString(it.JSON["text"]))
	}
	return result
}

func TestRunnerCall(t *testing.T) {
	r := newRunner(t, map[string]interface{}{"prefix": "# "})
	resp, err := r.Call(context.Background(), &Request{
		Method: "echo",
		Items:  []*schema.Item{{JSON: map[string]interface{}{}}, {JSON: map[string]interface{}{}}},
		Params: []map[string]interface{}{{"text": "one"}, {"text": "two"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", resp.Method)
	assert.NotEmpty(t, resp.ExecutionID)
	assert.Equal(t, []string{"# one", "# two"}, texts(resp.Items))

	resp, err = newRunner(t, nil).Call(context.Background(), &Request{
		Method: "echo",
		Params: []map[string]interface{}{{"text": 7}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"> 7"}, texts(resp.Items))

	_, err = r.Call(context.Background(), &Request{Method: "missing"})
	assert.EqualError(t, err, `unknown method "missing"`)

	_, err = r.Call(context.Background(), &Request{Method: "echo"})
	var cfgErr *schema.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRunnerMethods(t *testing.T) {
	want := []MethodInfo{
		{Name: "echo", Description: "Method echo repeats the text parameter."},
		{Name: "fail", Description: "Method fail fails."},
	}
	if diff := cmp.Diff(want, newRunner(t, nil).Methods()); diff != "" {
		t.Errorf("Methods() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRunnerErrors(t *testing.T) {
	_, err := NewRunner(context.Background(), PluginOptions{}, nil)
	assert.Error(t, err)

	_, err = NewRunner(context.Background(), echoOpts, map[string]interface{}{"prefix": []interface{}{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize processor")
}

func serveRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	h := NewRouter(newRunner(t, nil))

	rec := serveRequest(t, h, http.MethodGet, "/v1/methods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var infos []MethodInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Len(t, infos, 2)

	rec = serveRequest(t, h, http.MethodPost, "/v1/methods/echo", `{"params": [{"text": "hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"> hi"}, texts(resp.Items))

	rec = serveRequest(t, h, http.MethodPost, "/v1/methods/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serveRequest(t, h, http.MethodPost, "/v1/methods/echo", `{"params": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveRequest(t, h, http.MethodPost, "/v1/methods/fail", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error": "always fails"}`, rec.Body.String())

	rec = serveRequest(t, h, http.MethodPost, "/v1/options/letters", `{"extra": "B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name": "A", "value": "a"}, {"name": "B", "value": "x"}]`, rec.Body.String())

	rec = serveRequest(t, h, http.MethodPost, "/v1/options/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.xlsx"), []byte("PK"), 0o644))
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte(`
method: echo
continueOnFail: true
processor:
  prefix: "~ "
items:
  - json: {id: 1}
    binary:
      data: {file: book.xlsx}
params:
  - text: hello
`), 0o644))

	job, err := LoadJob(jobPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book.xlsx"), job.Items[0].Binary["data"].File)

	req, err := job.Request()
	require.NoError(t, err)
	assert.True(t, req.ContinueOnFail)
	require.Len(t, req.Items, 1)
	bin := req.Items[0].Binary["data"]
	require.NotNil(t, bin)
	assert.Equal(t, "book.xlsx", bin.FileName)
	assert.Equal(t, []byte("PK"), bin.Data)
	assert.NotEmpty(t, bin.ID)
	assert.Equal(t, 1, req.Items[0].JSON["id"])

	resp, err := newRunner(t, job.Processor).Call(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"~ hello"}, texts(resp.Items))

	out := filepath.Join(dir, "out")
	paths, err := WriteBinaries(out, resp.Items)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "0-data-book.xlsx")}, paths)

	_, err = ParseJob([]byte("params: []\n"))
	assert.EqualError(t, err, "job without method")

	job.Items[0].Binary["data"] = JobBinary{File: filepath.Join(dir, "gone.xlsx")}
	_, err = job.Request()
	assert.Error(t, err)
}

func TestMethodsCommand(t *testing.T) {
	cmd := NewCommand(echoOpts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"methods"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "echo               Method echo repeats the text parameter.\nfail               Method fail fails.\n", out.String())
}

func TestExecCommand(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte("method: echo\nparams:\n  - text: run\n"), 0o644))

	cmd := NewCommand(echoOpts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"exec", jobPath})
	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "echo", resp.Method)
	assert.Equal(t, []string{"> run"}, texts(resp.Items))

	cmd = NewCommand(echoOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"exec", filepath.Join(dir, "missing.yaml")})
	assert.Error(t, cmd.Execute())
}

func TestRunReportsErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	stderr := &bytes.Buffer{}
	assert.Equal(t, 1, Run(echoOpts, []string{"exec", missing}, stderr))
	assert.True(t, strings.HasPrefix(stderr.String(), "Error: "), stderr.String())
	assert.Contains(t, stderr.String(), missing)

	stderr.Reset()
	assert.Equal(t, 1, Run(echoOpts, []string{"--bogus"}, stderr))
	assert.Contains(t, stderr.String(), "unknown flag: --bogus")

	stderr.Reset()
	assert.Equal(t, 1, Run(echoOpts, []string{"bogus"}, stderr))
	assert.Contains(t, stderr.String(), `unknown command "bogus"`)

	stderr.Reset()
	assert.Equal(t, 0, Run(echoOpts, []string{"methods"}, stderr))
	assert.Empty(t, stderr.String())
}

func TestLoadProcessorConfig(t *testing.T) {
	config, err := loadProcessorConfig("")
	require.NoError(t, err)
	assert.Empty(t, config)

	path := filepath.Join(t.TempDir(), "processor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto-save: false\nmax-rows: 100\n"), 0o644))
	config, err = loadProcessorConfig(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"auto-save": false, "max-rows": 100}, config)
}
