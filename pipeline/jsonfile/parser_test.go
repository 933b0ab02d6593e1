package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pamflow/specpipe/pipeline"
)

const batTransforms = `[
	{"name": "decimate", "params": [256000]},
	{"name": "preemphsis", "params": [0.98]},
	{"name": "spectrogram", "params": [256, 10]},
	{"name": "spec2db", "params": [1]},
	{"name": "specnormalise", "params": [-100, 0]},
	{"name": "speccropinterp", "params": [40000, 100000, 256]},
	{"name": "specclamp", "params": [0, 1]}
]`

func TestParseDescriptors(t *testing.T) {
	descriptors, err := ParseDescriptors([]byte(batTransforms))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKinds := []pipeline.Kind{
		pipeline.Decimate,
		pipeline.PreEmphasis,
		pipeline.Spectrogram,
		pipeline.Spec2DB,
		pipeline.SpecNormalize,
		pipeline.SpecCropInterp,
		pipeline.SpecClamp,
	}
	if len(descriptors) != len(wantKinds) {
		t.Fatalf("got %d descriptors, want %d", len(descriptors), len(wantKinds))
	}
	for i, want := range wantKinds {
		if descriptors[i].Kind != want {
			t.Errorf("descriptor %d: got %s, want %s", i, descriptors[i].Kind, want)
		}
	}

	if got := descriptors[5].Params; len(got) != 3 || got[0] != 40000 || got[1] != 100000 || got[2] != 256 {
		t.Errorf("speccropinterp params: got %v, want [40000 100000 256]", got)
	}
}

func TestParseDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantConf bool
	}{
		{"malformed_json", `[{"name": "decimate"`, false},
		{"unknown_name", `[{"name": "stft", "params": [256]}]`, true},
		{"bad_arity", `[{"name": "decimate", "params": [256000, 1]}]`, true},
		{"missing_params", `[{"name": "specclamp"}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptors([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, pipeline.ErrConfiguration); got != tt.wantConf {
				t.Errorf("errors.Is(err, ErrConfiguration) = %v, want %v (err: %v)", got, tt.wantConf, err)
			}
		})
	}
}

func TestReadDescriptorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transforms.json")
	if err := os.WriteFile(path, []byte(batTransforms), 0o644); err != nil {
		t.Fatal(err)
	}

	descriptors, err := ReadDescriptorFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(descriptors) != 7 {
		t.Errorf("got %d descriptors, want 7", len(descriptors))
	}

	if _, err := ReadDescriptorFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
