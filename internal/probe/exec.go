package probe

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// ExecPinger shells out to the system ping binary for a single echo.
type ExecPinger struct {
	Binary string
	GOOS   string
}

func NewExecPinger() *ExecPinger {
	return &ExecPinger{Binary: "ping", GOOS: runtime.GOOS}
}

var timeRe = regexp.MustCompile(`time[=<]\s*([0-9]+(?:\.[0-9]+)?)\s*ms`)

func (p *ExecPinger) Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	wait := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if wait <= 0 {
		return domain.NoResponse()
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary, pingArgs(p.GOOS, string(target), wait)...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return domain.NoResponse()
	}
	lat, ok := ParseLatency(stdout.Bytes())
	if !ok {
		return domain.NoResponse()
	}
	return domain.Responded(lat)
}

// ParseLatency extracts the round-trip time from ping output ("time=12.3 ms").
func ParseLatency(out []byte) (time.Duration, bool) {
	m := timeRe.FindSubmatch(out)
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

func pingArgs(goos, target string, wait time.Duration) []string {
	switch goos {
	case "windows":
		ms := wait.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		return []string{"-n", "1", "-w", strconv.FormatInt(ms, 10), target}
	case "darwin", "freebsd", "openbsd", "netbsd":
		return []string{"-c", "1", "-t", strconv.Itoa(waitSeconds(wait)), target}
	default:
		return []string{"-c", "1", "-W", strconv.Itoa(waitSeconds(wait)), target}
	}
}

// waitSeconds rounds up; ping's -W/-t take whole seconds.
func waitSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
