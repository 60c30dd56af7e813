package pool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"llmpoold/internal/worker"
	"llmpoold/pkg/types"
)

// subprocessRunner hosts the worker body in a child process speaking the
// NDJSON protocol from llmpoold/internal/worker. The configuration rides
// in an environment variable; prompts go down stdin and results come back
// on stdout. Closing stdin is the cooperative stop signal on the child
// side: the child exits 0 on EOF and 1 on any failure, so the exit status
// observed at stop time distinguishes abnormal termination.
type subprocessRunner struct {
	command []string
	log     zerolog.Logger

	cmd    *exec.Cmd
	stderr bytes.Buffer
	waitCh chan error
	exited bool
}

func (r *subprocessRunner) Start(rec *workerRecord) error {
	cfgJSON, err := json.Marshal(rec.config)
	if err != nil {
		return fmt.Errorf("encode worker config: %w", err)
	}
	if len(r.command) == 0 {
		return errors.New("subprocess runner: empty worker command")
	}
	cmd := exec.Command(r.command[0], r.command[1:]...)
	cmd.Env = append(os.Environ(), worker.ConfigEnv+"="+string(cfgJSON))
	cmd.Stderr = &r.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker process: %w", err)
	}
	r.cmd = cmd
	r.waitCh = make(chan error, 1)
	go func() {
		r.waitCh <- cmd.Wait()
	}()
	go pumpPrompts(rec.stop, rec.input, stdin)
	go pumpResults(rec.stop, stdout, rec.output)
	return nil
}

// pumpPrompts forwards prompts from the input channel to the child's
// stdin and closes stdin once the stop signal is set.
func pumpPrompts(stop <-chan struct{}, in <-chan string, stdin io.WriteCloser) {
	defer stdin.Close()
	enc := json.NewEncoder(stdin)
	for {
		select {
		case <-stop:
			return
		case prompt := <-in:
			if err := enc.Encode(worker.Request{Prompt: prompt}); err != nil {
				return
			}
		}
	}
}

// pumpResults forwards responses from the child's stdout to the output
// channel until the stream ends or the stop signal is set.
func pumpResults(stop <-chan struct{}, stdout io.Reader, out chan<- types.Generation) {
	dec := json.NewDecoder(stdout)
	for {
		var resp worker.Response
		if err := dec.Decode(&resp); err != nil {
			return
		}
		select {
		case out <- resp.Result:
		case <-stop:
			return
		}
	}
}

func (r *subprocessRunner) Join(timeout time.Duration) bool {
	if r.cmd == nil {
		return true
	}
	select {
	case err := <-r.waitCh:
		r.exited = true
		if err != nil {
			tail := r.stderr.String()
			if len(tail) > 4096 {
				tail = tail[len(tail)-4096:]
			}
			r.log.Warn().Err(err).Str("stderr_tail", tail).Int("pid", r.PID()).Msg("worker process exited abnormally")
			return false
		}
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *subprocessRunner) Kill() {
	if r.cmd == nil || r.cmd.Process == nil || r.exited {
		return
	}
	_ = r.cmd.Process.Kill()
	<-r.waitCh
	r.exited = true
}

func (r *subprocessRunner) PID() int {
	if r.cmd == nil || r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}
