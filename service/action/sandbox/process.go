package sandbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
)

// DefaultInterpreter is the command reading a script from stdin.
const DefaultInterpreter = "node"

// DefaultMemoryLimit caps the interpreter heap in megabytes.
const DefaultMemoryLimit = 64

// Process runs code in a separate node process on the local host. The process
// starts with an empty environment under the node permission model (node 22
// or newer) with no filesystem, child process, worker or addon grants, and a
// capped heap.
type Process struct {
	interpreter string
	timeout     time.Duration
	service     *gosh.Service
	mux         sync.Mutex
}

// NewProcess starts the local shell used to launch the interpreter.
func NewProcess(ctx context.Context, interpreter string, timeout time.Duration) (*Process, error) {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	service, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, fmt.Errorf("failed to start sandbox shell: %w", err)
	}
	return &Process{interpreter: interpreter, timeout: timeout, service: service}, nil
}

func (p *Process) Run(ctx context.Context, code string) (json.RawMessage, error) {
	script := "process.stdout.write(JSON.stringify((function() {\n" + code + "\n})()) ?? 'null')"
	command := fmt.Sprintf("echo %s | base64 -d | env -i PATH=\"$PATH\" %s --permission --max-old-space-size=%d -",
		base64.StdEncoding.EncodeToString([]byte(script)), p.interpreter, DefaultMemoryLimit)

	p.mux.Lock()
	defer p.mux.Unlock()
	started := time.Now()
	stdout, status, err := p.service.Run(ctx, command, runner.WithTimeout(int(p.timeout.Milliseconds())))
	if elapsed := time.Since(started); elapsed > p.timeout {
		return nil, fmt.Errorf("%w after %s", ErrTimeLimit, elapsed)
	}
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	output := strings.TrimSpace(stdout)
	if status != 0 {
		return nil, fmt.Errorf("sandbox: exit status %d: %s", status, output)
	}
	if !json.Valid([]byte(output)) {
		return nil, fmt.Errorf("%w: %s", ErrNotSerializable, output)
	}
	return json.RawMessage(output), nil
}

// Close terminates the shell.
func (p *Process) Close() error {
	return p.service.Close()
}
