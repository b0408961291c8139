package dispatch

import (
	"log"
	"os/exec"
	"strings"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

// Executor runs one external command. Implementations are fire-and-forget
// from the protocol's point of view: a failure is terminal for that single
// invocation and never escalates into the session.
type Executor interface {
	Execute(script, param string) error
}

// ShellDispatcher runs commands through the shell, the way the IR sender
// (`irsend SEND_ONCE <remote> <code>`) expects to be invoked.
type ShellDispatcher struct {
	logger *log.Logger
}

// NewShellDispatcher creates a dispatcher logging to logger.
func NewShellDispatcher(logger *log.Logger) *ShellDispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &ShellDispatcher{logger: logger}
}

// Execute runs `script param` as a shell command and waits for it to finish.
func (d *ShellDispatcher) Execute(script, param string) error {
	cmdLine := CommandLine(script, param)
	d.logger.Printf("DISPATCH: running '%s' shell command", cmdLine)

	out, err := exec.Command("/bin/sh", "-c", cmdLine).CombinedOutput()
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrorCodeDispatchFailed,
			"command '"+cmdLine+"' failed: "+err.Error(), 500,
			map[string]any{"output": strings.TrimSpace(string(out))})
	}
	return nil
}

// CommandLine joins script and param into the shell command line.
func CommandLine(script, param string) string {
	if param == "" {
		return script
	}
	return script + " " + param
}
