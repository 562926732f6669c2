package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const procRoute = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	0000A8C0	00000000	0001	0	0	100	00FFFFFF	0	0	0
eth0	00000000	0101A8C0	0003	0	0	100	00000000	0	0	0
`

func TestParseProcRoute(t *testing.T) {
	gw, err := ParseProcRoute(strings.NewReader(procRoute))
	if err != nil {
		t.Fatalf("ParseProcRoute: %v", err)
	}
	if gw != "192.168.1.1" {
		t.Fatalf("got %q want 192.168.1.1", gw)
	}
}

func TestParseProcRoute_NoDefault(t *testing.T) {
	only := strings.SplitN(procRoute, "\n", 3)
	_, err := ParseProcRoute(strings.NewReader(only[0] + "\n" + only[1] + "\n"))
	if !errors.Is(err, ErrNoDefaultRoute) {
		t.Fatalf("want ErrNoDefaultRoute, got %v", err)
	}
}

func TestParseIPRoute(t *testing.T) {
	out := "default via 10.0.0.1 dev wlan0 proto dhcp metric 600\n10.0.0.0/24 dev wlan0 scope link\n"
	gw, err := ParseIPRoute(out)
	if err != nil || gw != "10.0.0.1" {
		t.Fatalf("got %q %v", gw, err)
	}
	if _, err := ParseIPRoute("10.0.0.0/24 dev wlan0\n"); !errors.Is(err, ErrNoDefaultRoute) {
		t.Fatalf("want ErrNoDefaultRoute, got %v", err)
	}
}

func TestDetector_UsesRouteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "route")
	if err := os.WriteFile(p, []byte(procRoute), 0o644); err != nil {
		t.Fatal(err)
	}
	gw, err := Detector{RouteFile: p}.Detect(context.Background())
	if err != nil || gw != "192.168.1.1" {
		t.Fatalf("got %q %v", gw, err)
	}
}

func TestDetector_FailureIsError(t *testing.T) {
	d := Detector{
		RouteFile: filepath.Join(t.TempDir(), "missing"),
		IPCommand: "netwatch-no-such-ip-binary",
	}
	if gw, err := d.Detect(context.Background()); err == nil || gw != "" {
		t.Fatalf("want error and empty gateway, got %q %v", gw, err)
	}
}
