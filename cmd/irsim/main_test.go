package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const inverters = `| units: 100 tech: scmos
p in vdd a 2 8
n in a gnd 2 4
p a vdd out 2 8
n a out gnd 2 4
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "inv.sim")
	if err := os.WriteFile(file, []byte(inverters), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := range args {
		args[i] = strings.ReplaceAll(args[i], "$FILE", file)
		args[i] = strings.ReplaceAll(args[i], "$DIR", dir)
	}
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestRun(t *testing.T) {
	out := execute(t, "run", "--high", "in", "--watch", "out", "$FILE")
	if !strings.Contains(out, "out") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStats(t *testing.T) {
	out := execute(t, "stats", "--low", "in", "$FILE")
	if !strings.Contains(out, "nevents = ") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCPath(t *testing.T) {
	out := execute(t, "cpath", "--high", "in", "$FILE", "out")
	if !strings.HasPrefix(out, "critical path for last transition of out:") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPlot(t *testing.T) {
	execute(t, "plot", "--high", "in", "--watch", "in,a,out", "-o", "$DIR/w.png", "$FILE")
}

func TestBadModel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"stats", "--model", "spice", "x.sim"})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error")
	}
}
