package downloads

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"playlistdl/internal/domain/command"
	"playlistdl/internal/utils/logging"
)

const (
	stderrTailLines = 5
	maxReasonLen    = 512
)

// YTDLP runs downloads through the yt-dlp binary.
type YTDLP struct {
	Binary    string
	ExtraArgs []string
}

// NewYTDLP returns an executor for the given yt-dlp binary (empty means "yt-dlp" on PATH).
func NewYTDLP(binary string) *YTDLP {
	if binary == "" {
		binary = command.YTDLP
	}
	return &YTDLP{Binary: binary}
}

// Start spawns yt-dlp for one request.
func (y *YTDLP) Start(req Request, onProgress func(Progress)) (Handle, error) {
	args := append(append([]string{}, y.ExtraArgs...), BuildArgs(req)...)
	return startProcess(y.Binary, args, onProgress)
}

// startProcess spawns a downloader in its own process group and begins reading its output.
func startProcess(binary string, args []string, onProgress func(Progress)) (*process, error) {
	cmd := exec.Command(binary, args...)
	setProcessGroup(cmd)

	logging.D(1, "Executing command: %v with args: %v", cmd.Path, cmd.Args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command start error: %w", err)
	}

	p := &process{
		cmd:  cmd,
		tail: newLineTail(stderrTailLines),
	}
	p.readers.Add(2)
	go p.scanStdout(stdout, onProgress)
	go p.scanStderr(stderr)
	return p, nil
}

// process is a running downloader.
type process struct {
	cmd       *exec.Cmd
	tail      *lineTail
	readers   sync.WaitGroup
	cancelled atomic.Bool

	waitOnce sync.Once
	outcome  Outcome
}

// Wait blocks until the process is reaped.
func (p *process) Wait() Outcome {
	p.waitOnce.Do(func() {
		// Pipes must be drained before Wait closes them
		p.readers.Wait()
		err := p.cmd.Wait()

		// A clean exit that raced the kill still counts as a download
		switch {
		case err == nil:
			p.outcome = Success()
		case p.cancelled.Load():
			p.outcome = Cancelled()
		default:
			p.outcome = Failure(p.failureReason(err))
		}
	})
	return p.outcome
}

// Cancel kills the whole process group. Wait reports the cancellation once the process is gone.
func (p *process) Cancel() {
	p.cancelled.Store(true)
	if p.cmd.Process == nil {
		return
	}
	if err := killGroup(p.cmd.Process.Pid); err != nil {
		logging.D(1, "Kill of process group %d failed: %v", p.cmd.Process.Pid, err)
	}
}

// Suspend stops the process group in place.
func (p *process) Suspend() error {
	return suspendGroup(p.cmd.Process.Pid)
}

// Resume continues a suspended process group.
func (p *process) Resume() error {
	return resumeGroup(p.cmd.Process.Pid)
}

func (p *process) failureReason(err error) string {
	tail := p.tail.String()

	var exitErr *exec.ExitError
	var reason string
	if errors.As(err, &exitErr) {
		reason = fmt.Sprintf("exit code %d", exitErr.ExitCode())
	} else {
		reason = err.Error()
	}
	if tail != "" {
		reason += ": " + tail
	}
	return truncateReason(reason)
}

// truncateReason caps s at maxReasonLen bytes without splitting a UTF-8 sequence.
func truncateReason(s string) string {
	if len(s) <= maxReasonLen {
		return s
	}
	cut := maxReasonLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// scanStdout parses progress lines and forwards them.
func (p *process) scanStdout(r io.Reader, onProgress func(Progress)) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(r)
	scanner.Split(splitByNewlineOrCR)

	var last Progress
	for scanner.Scan() {
		prog, ok := ParseProgressLine(scanner.Text())
		if !ok || prog == last {
			continue
		}
		last = prog
		if onProgress != nil {
			onProgress(prog)
		}
	}
	if err := scanner.Err(); err != nil {
		logging.D(1, "Stdout scanner error: %v", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanStderr keeps the last few lines for failure reasons.
func (p *process) scanStderr(r io.Reader) {
	defer p.readers.Done()

	scanner := bufio.NewScanner(r)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		line := scanner.Text()
		logging.D(3, "yt-dlp: %s", line)
		p.tail.Add(line)
	}
	if err := scanner.Err(); err != nil {
		logging.D(1, "Stderr scanner error: %v", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

// splitByNewlineOrCR is a bufio.SplitFunc treating both '\n' and '\r' as line ends.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimSpace(data[:i]), nil
	}
	if atEOF {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}
