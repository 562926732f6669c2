package registry

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hamed0406/netwatch/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ips.txt")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_TrimsSkipsBlankAndDedups(t *testing.T) {
	p := writeFile(t, "  8.8.8.8 \n\n# comment\nexample.com\n8.8.8.8\n\t\nExample.com\n")

	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []domain.Target{"8.8.8.8", "example.com", "Example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLoad_DuplicateKeepsFirstPosition(t *testing.T) {
	p := writeFile(t, "b\na\nb\nc\na\n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []domain.Target{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLoad_MissingFileIsConfigurationError(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want wrapped ErrNotExist, got %v", err)
	}
}

func TestLoad_EmptyFileIsConfigurationError(t *testing.T) {
	p := writeFile(t, "\n   \n# only comments\n")
	got, err := Load(p)
	if len(got) != 0 {
		t.Fatalf("want no targets, got %v", got)
	}
	if !errors.Is(err, ErrEmptySource) {
		t.Fatalf("want ErrEmptySource, got %v", err)
	}
}

func TestParse_Reader(t *testing.T) {
	got, err := Parse(strings.NewReader("10.0.0.1\r\n10.0.0.2\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, []domain.Target{"10.0.0.1", "10.0.0.2"}) {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestAugment_InsertsAtFront(t *testing.T) {
	in := []domain.Target{"a", "b"}
	got := Augment(in, "192.168.1.1")
	want := []domain.Target{"192.168.1.1", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if !reflect.DeepEqual(in, []domain.Target{"a", "b"}) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestAugment_ExistingMemberNotReordered(t *testing.T) {
	in := []domain.Target{"a", "gw", "b"}
	got := Augment(in, "gw")
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %v want %v", got, in)
	}
}

func TestAugment_EmptyGatewayIsNoop(t *testing.T) {
	in := []domain.Target{"a"}
	if got := Augment(in, "  "); !reflect.DeepEqual(got, in) {
		t.Fatalf("got %v", got)
	}
	if got := Augment(nil, ""); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestAugment_Idempotent(t *testing.T) {
	in := []domain.Target{"a", "b"}
	once := Augment(in, "gw")
	twice := Augment(once, "gw")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("once=%v twice=%v", once, twice)
	}
}
