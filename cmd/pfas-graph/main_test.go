package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const input = "details,category,name,lat,city,country,sector,lon,date,matrix,pfas_sum,unit,pfas_values,pfas_produced\n" +
	`"Status: Closed, Closed in 2014",Known PFAS user,Acme Plant,45.0,,,,,,,,,[],PFOA` + "\n"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "PFASGRAPH_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeInput(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "pdh_data.csv")
	if err := os.WriteFile(in, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	return in, filepath.Join(dir, "out")
}

func TestRunWritesTables(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	in, out := writeInput(t)

	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	err := app.Run([]string{"pfas-graph",
		"--input", in,
		"--output-dir", out,
		"--summary-key", "run_summary.yaml",
		"--verify",
		"--report",
		"--log-level", "error",
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for name, want := range map[string]string{
		"nodes_substances.csv":        "name\nPFOA\n",
		"edges_production_direct.csv": "site_id,substance\nacme_plant_45.0,PFOA\n",
		"edges_detections.csv":        "meas_id,substance,value\n",
	} {
		got, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	summary, err := os.ReadFile(filepath.Join(out, "run_summary.yaml"))
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if !strings.Contains(string(summary), "verified: true") {
		t.Errorf("summary =\n%s", summary)
	}
	if !strings.Contains(stdout.String(), "Run Metrics Report") {
		t.Errorf("report not printed:\n%s", stdout.String())
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	in, _ := writeInput(t)
	t.Setenv("PFASGRAPH_OUTPUT_DRIVER", "s3")

	// s3 without a bucket is invalid unless the flag switches the driver
	app := newApp()
	if err := app.Run([]string{"pfas-graph", "--input", in, "--log-level", "error"}); err == nil {
		t.Fatal("expected configuration error")
	}

	app = newApp()
	if err := app.Run([]string{"pfas-graph", "--input", in, "--output-driver", "memory", "--log-level", "error"}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	app := newApp()
	err := app.Run([]string{"pfas-graph", "--input", "nope.csv", "--output-driver", "memory", "--log-level", "error"})
	if err == nil || !strings.Contains(err.Error(), "failed to read input") {
		t.Fatalf("error = %v", err)
	}
}
