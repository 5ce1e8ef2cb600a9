package options

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseKV(t *testing.T) {
	tests := []struct {
		name      string
		pair      string
		wantKey   string
		wantValue any
		wantErr   bool
	}{
		{"string value", "endpoint=localhost:9000", "endpoint", "localhost:9000", false},
		{"int value", "port=9000", "port", 9000, false},
		{"float value", "ratio=2.5", "ratio", 2.5, false},
		{"bool true", "secure=true", "secure", true, false},
		{"bool false", "secure=false", "secure", false, false},
		{"numeric string stays int, not bool", "flag=1", "flag", 1, false},
		{"value containing equals", "token=a=b", "token", "a=b", false},
		{"whitespace trimmed", " bucket = results ", "bucket", "results", false},
		{"missing equals", "justakey", "", nil, true},
		{"empty key", "=value", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := ParseKV(tt.pair)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if key != tt.wantKey || !reflect.DeepEqual(value, tt.wantValue) {
				t.Errorf("ParseKV() = (%q, %v), want (%q, %v)", key, value, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestBuildPrecedence(t *testing.T) {
	t.Setenv("SWEEPTEST_OPTS_ENDPOINT", "env-endpoint")
	t.Setenv("SWEEPTEST_OPTS_REGION", "env-region")

	file := filepath.Join(t.TempDir(), "opts.json")
	if err := os.WriteFile(file, []byte(`{"endpoint": "file-endpoint", "bucket": "file-bucket"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Build(
		"SWEEPTEST_OPTS",
		`{"endpoint": "json-endpoint", "secure": false}`,
		[]string{"endpoint=kv-endpoint"},
		file,
	)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// kv beats json beats file beats env.
	if opts["endpoint"] != "kv-endpoint" {
		t.Errorf("endpoint = %v, want kv-endpoint", opts["endpoint"])
	}
	if opts["secure"] != false {
		t.Errorf("secure = %v, want false", opts["secure"])
	}
	if opts["bucket"] != "file-bucket" {
		t.Errorf("bucket = %v, want file-bucket", opts["bucket"])
	}
	if opts["region"] != "env-region" {
		t.Errorf("region = %v, want env-region", opts["region"])
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build("SWEEPTEST_NONE", "{not json", nil, ""); err == nil {
		t.Error("Build() expected error for invalid JSON")
	}
	if _, err := Build("SWEEPTEST_NONE", "", []string{"nokv"}, ""); err == nil {
		t.Error("Build() expected error for malformed kv pair")
	}
	if _, err := Build("SWEEPTEST_NONE", "", nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Build() expected error for missing file")
	}
}

func TestFromEnvWholeJSONObject(t *testing.T) {
	t.Setenv("SWEEPTEST_JSON", `{"endpoint": "json-env", "port": 9000}`)
	t.Setenv("SWEEPTEST_JSON_BUCKET", "results")

	opts := FromEnv("SWEEPTEST_JSON")
	if opts["endpoint"] != "json-env" {
		t.Errorf("endpoint = %v", opts["endpoint"])
	}
	if opts["bucket"] != "results" {
		t.Errorf("bucket = %v", opts["bucket"])
	}
}

func TestFromEnvEmpty(t *testing.T) {
	if opts := FromEnv("SWEEPTEST_DEFINITELY_UNSET"); opts != nil {
		t.Errorf("FromEnv() = %v, want nil", opts)
	}
}
