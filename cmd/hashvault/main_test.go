package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	hverrors "github.com/tamirms/hashvault/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append(args, "--log-file", filepath.Join(t.TempDir(), "run.log")))
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateSearchVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")

	out, err := execute(t, "-k", "12", "-f", path, "-a", "gen", "-p", "8", "-w", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Generating 4096 records to "+path) || !strings.Contains(out, "Total Time:") {
		t.Errorf("gen output %q", out)
	}

	out, err = execute(t, "-f", path, "-a", "search", "-q", "1", "-s", "100", "--seed", "5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Found ") || !strings.Contains(out, "Search Time:") {
		t.Errorf("search output %q", out)
	}

	out, err = execute(t, "-f", path, "-a", "verify")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Dataset OK: 4096 records in 8 shards\n"; out != want {
		t.Errorf("verify output %q, want %q", out, want)
	}
}

func TestSearchZeroSearchesSkipsLoad(t *testing.T) {
	out, err := execute(t, "-f", filepath.Join(t.TempDir(), "missing"), "-a", "search", "-s", "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Found 0 matches.\n") {
		t.Errorf("output %q", out)
	}
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"difficulty", []string{"-a", "search", "-q", "0"}, hverrors.ErrInvalidDifficulty},
		{"exponent", []string{"-k", "49"}, hverrors.ErrInvalidExponent},
		{"hash", []string{"--hash", "md5"}, hverrors.ErrUnknownHash},
		{"action", []string{"-a", "drop"}, hverrors.ErrConfiguration},
		// Flag parse errors come from pflag and carry no sentinel.
		{"non-numeric exponent", []string{"-k", "abc"}, nil},
		{"non-numeric searches", []string{"-a", "search", "-s", "ten"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "output")
			args := append([]string{"-f", path}, tt.args...)
			_, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("rejected arguments left output behind: %v", err)
			}
		})
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output")
	cfgPath := filepath.Join(dir, "hashvault.toml")
	data := "exponent = 6\npartitions = 2\npath = \"" + filepath.ToSlash(filepath.Join(dir, "ignored")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "-c", cfgPath, "-f", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Generating 64 records to "+path) {
		t.Errorf("output %q", out)
	}
	if _, err := os.Stat(filepath.Join(path, "part-00001.hvs")); err != nil {
		t.Errorf("expected two shards from the config file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ignored")); !os.IsNotExist(err) {
		t.Error("config file path overrode the explicit flag")
	}
}
