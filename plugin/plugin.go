// Package plugin hosts a processor: it initializes it from its processor
// configuration and runs its methods from job files (exec) or over HTTP
// (serve).
package plugin

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"sbl.system/synwork/synwork-processor-excelai/logger"
	"sbl.system/synwork/synwork-processor-excelai/schema"
)

type PluginOptions struct {
	Provider func() schema.Processor
}

// Serve runs the command line of the processor and exits with its status.
func Serve(opts PluginOptions) {
	os.Exit(Run(opts, os.Args[1:], os.Stderr))
}

// Run executes the command line with args and returns the exit code. A
// failure is logged and written to stderr.
func Run(opts PluginOptions, args []string, stderr io.Writer) int {
	cmd := NewCommand(opts)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		logger.Logger.Error("command failed", zap.Error(err))
		logger.Sync()
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

type (
	// Request is one method call: the items flowing into the method and
	// either one parameter set for all items or one per item.
	Request struct {
		Method         string                   `json:"method" yaml:"method"`
		ContinueOnFail bool                     `json:"continueOnFail" yaml:"continueOnFail"`
		Items          []*schema.Item           `json:"items" yaml:"items"`
		Params         []map[string]interface{} `json:"params" yaml:"params"`
	}

	Response struct {
		ExecutionID string         `json:"executionId"`
		Method      string         `json:"method"`
		Items       []*schema.Item `json:"items"`
	}

	MethodInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// Runner executes methods of one initialized processor.
	Runner struct {
		processor schema.Processor
		client    interface{}
	}
)

func NewRunner(ctx context.Context, opts PluginOptions, config map[string]interface{}) (*Runner, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("plugin options without provider")
	}
	p := opts.Provider()
	if config == nil {
		config = map[string]interface{}{}
	}
	client, err := p.Init(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize processor: %w", err)
	}
	return &Runner{processor: p, client: client}, nil
}

func (r *Runner) Call(ctx context.Context, req *Request) (*Response, error) {
	m, err := r.processor.Method(req.Method)
	if err != nil {
		return nil, err
	}
	log, id := logger.WithExecution(req.Method)
	data, err := schema.NewMethodData(req.Method, m, req.Items, req.Params,
		schema.WithContinueOnFail(req.ContinueOnFail),
		schema.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := m.ExecFunc(ctx, data, r.client); err != nil {
		log.Error("method failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}
	log.Info("method executed",
		zap.Int("items", data.ItemCount()),
		zap.Int("results", data.ResultCount()),
		zap.Duration("duration", time.Since(start)),
	)
	return &Response{ExecutionID: id, Method: req.Method, Items: data.Results()}, nil
}

func (r *Runner) LoadOptions(ctx context.Context, name string, config map[string]interface{}) ([]schema.PropertyOption, error) {
	f, err := r.processor.LoadOption(name)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	return f(ctx, config, r.client)
}

// Methods lists the methods with the first line of their description.
func (r *Runner) Methods() []MethodInfo {
	names := r.processor.MethodNames()
	infos := make([]MethodInfo, 0, len(names))
	for _, name := range names {
		desc := strings.TrimSpace(r.processor.MethodMap[name].Description)
		if i := strings.IndexByte(desc, '\n'); i >= 0 {
			desc = strings.TrimSpace(desc[:i])
		}
		infos = append(infos, MethodInfo{Name: name, Description: desc})
	}
	return infos
}
