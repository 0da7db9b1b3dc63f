package rasdid

import (
	"errors"
	"testing"
	"time"
)

func TestGenerate_Format(t *testing.T) {
	id := Generate()

	parsed, err := Parse(string(id))
	if err != nil {
		t.Fatalf("generated identifier does not parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("parse round-trip changed identifier: %q vs %q", parsed, id)
	}
	if id.IsSub() {
		t.Fatalf("generated identifier should be a parent: %q", id)
	}
}

func TestGenerateAt_UsesDate(t *testing.T) {
	at := time.Date(2023, 1, 22, 15, 4, 5, 0, time.UTC)
	id := GenerateAt(at)

	if got := string(id)[:13]; got != "RASD-20230122" {
		t.Fatalf("expected date prefix RASD-20230122, got %q", got)
	}
}

func TestSub_RoundTrip(t *testing.T) {
	parent := Generate()

	for _, n := range []int{1, 2, 10, 99} {
		sub, err := parent.Sub(n)
		if err != nil {
			t.Fatalf("Sub(%d) error: %v", n, err)
		}
		if _, err := Parse(string(sub)); err != nil {
			t.Fatalf("sub identifier does not parse: %v", err)
		}
		if !sub.IsSub() {
			t.Fatalf("expected sub identifier, got %q", sub)
		}
		if sub.Parent() != parent {
			t.Fatalf("expected parent %q, got %q", parent, sub.Parent())
		}
		if sub.Seq() != n {
			t.Fatalf("expected seq %d, got %d", n, sub.Seq())
		}
	}
}

func TestSub_Invalid(t *testing.T) {
	parent := Generate()

	if _, err := parent.Sub(0); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for seq 0, got %v", err)
	}
	if _, err := parent.Sub(100); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for seq 100, got %v", err)
	}

	sub, err := parent.Sub(1)
	if err != nil {
		t.Fatalf("Sub error: %v", err)
	}
	if _, err := sub.Sub(2); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat deriving sub of sub, got %v", err)
	}
}

func TestParse_Strict(t *testing.T) {
	valid := []string{
		"RASD-20230122-8d18cc",
		"RASD-20230204-73df14",
		"RASD-20230204-73df14-03",
	}
	for _, s := range valid {
		if _, err := Parse(s); err != nil {
			t.Fatalf("expected %q to parse, got %v", s, err)
		}
	}

	invalid := []string{
		"",
		"RASD-20230122",
		"RASD-2023012-8d18cc",
		"RASD-20230122-8d18c",
		"RASD-20230122-8D18CC",
		"RASD-20230122-8d18cc-3",
		"RASD-20230122-8d18cc-003",
		"rasd-20230122-8d18cc",
		"RASD-20230122-8d18cc-01-01",
	}
	for _, s := range invalid {
		if _, err := Parse(s); !errors.Is(err, ErrFormat) {
			t.Fatalf("expected ErrFormat for %q, got %v", s, err)
		}
	}
}
