package gateway

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"

	"github.com/hamed0406/netwatch/internal/domain"
)

var ErrNoDefaultRoute = errors.New("no default route")

// Detector finds the default IPv4 gateway. Zero value uses the host's
// /proc/net/route and falls back to `ip route show default`.
type Detector struct {
	RouteFile string
	IPCommand string
}

// Detect is best-effort: callers treat any error as "no gateway".
func Detect(ctx context.Context) (domain.Target, error) {
	return Detector{}.Detect(ctx)
}

func (d Detector) Detect(ctx context.Context) (domain.Target, error) {
	routeFile := d.RouteFile
	if routeFile == "" {
		routeFile = "/proc/net/route"
	}
	if f, err := os.Open(routeFile); err == nil {
		gw, perr := ParseProcRoute(f)
		f.Close()
		if perr == nil {
			return gw, nil
		}
	}

	ipCmd := d.IPCommand
	if ipCmd == "" {
		ipCmd = "ip"
	}
	out, err := exec.CommandContext(ctx, ipCmd, "route", "show", "default").Output()
	if err != nil {
		return "", fmt.Errorf("detect gateway: %w", err)
	}
	return ParseIPRoute(string(out))
}

// ParseProcRoute reads the Linux routing table and returns the gateway of
// the first default route.
func ParseProcRoute(r io.Reader) (domain.Target, error) {
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue // header
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		raw, err := hex.DecodeString(fields[2])
		if err != nil || len(raw) != 4 {
			continue
		}
		// little-endian on every platform the kernel exports this file on
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, binary.LittleEndian.Uint32(raw))
		if ip.IsUnspecified() {
			continue
		}
		return domain.Target(ip.String()), nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrNoDefaultRoute
}

// ParseIPRoute extracts the "via" address from `ip route` output.
func ParseIPRoute(out string) (domain.Target, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "default" {
			continue
		}
		for i := 1; i+1 < len(fields); i++ {
			if fields[i] == "via" {
				return domain.Normalize(fields[i+1]), nil
			}
		}
	}
	return "", ErrNoDefaultRoute
}
