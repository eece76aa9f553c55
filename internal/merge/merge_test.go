package merge

import (
	"strings"
	"testing"
)

func TestDetectFormatByExtension(t *testing.T) {
	cases := map[string]Format{
		"config.json":  FormatJSON,
		"config.yaml":  FormatYAML,
		"config.yml":   FormatYAML,
		"Cargo.toml":   FormatTOML,
		"settings.ini": FormatINI,
		"README.md":    FormatText,
	}
	for path, want := range cases {
		got := DetectFormat(path, []byte("x"))
		if got != want {
			t.Errorf("DetectFormat(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestDetectFormatBinarySniff(t *testing.T) {
	got := DetectFormat("noext", []byte{0x00, 0xff, 0x10})
	if got != FormatBinary {
		t.Errorf("expected binary for invalid utf8, got %v", got)
	}
}

func TestSingleLayerStructuredMergeNoConflict(t *testing.T) {
	// Spec acceptance criterion 1: single layer, no merge needed.
	out, err := MergeFile("config.json", FormatJSON, []Contribution{
		{LayerRef: "refs/jin/layers/global", Content: []byte(`{"port": 8080}`)},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Conflicted {
		t.Fatal("single contributor must never conflict")
	}
	if string(out.Merged) != `{"port": 8080}` {
		t.Fatalf("got %s", out.Merged)
	}
}

func TestTwoLayerDeepMergeDeletesAndMerges(t *testing.T) {
	// Spec acceptance criterion 2.
	out, err := MergeFile("config.json", FormatJSON, []Contribution{
		{LayerRef: "refs/jin/layers/mode/claude/_", Content: []byte(`{"a":{"x":1}, "b":true}`)},
		{LayerRef: "refs/jin/layers/mode/claude/project/app", Content: []byte(`{"a":{"y":2}, "b":null}`)},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Conflicted {
		t.Fatal("structured merges never textually conflict")
	}
	got := string(out.Merged)
	if !strings.Contains(got, `"x": 1`) || !strings.Contains(got, `"y": 2`) {
		t.Fatalf("expected deep-merged a.x and a.y, got %s", got)
	}
	if strings.Contains(got, `"b"`) {
		t.Fatalf("expected b deleted by null, got %s", got)
	}
}

func TestStructuralConflictOnTypeMismatch(t *testing.T) {
	_, err := MergeFile("config.json", FormatJSON, []Contribution{
		{LayerRef: "refs/jin/layers/global", Content: []byte(`{"a": {"x": 1}}`)},
		{LayerRef: "refs/jin/layers/mode/claude/_", Content: []byte(`{"a": "scalar"}`)},
	}, nil)
	if err == nil {
		t.Fatal("expected a structural conflict error")
	}
}

func TestTextConflictProducesLayerLabeledMarkers(t *testing.T) {
	// Spec acceptance criterion 3.
	out, err := MergeFile("readme.txt", FormatText, []Contribution{
		{LayerRef: "mode/claude/_", Content: []byte("Hello world\n")},
		{LayerRef: "mode/claude/scope/lang/rust/_", Content: []byte("Hello Rust\n")},
	}, nil)
	if err == nil {
		t.Fatal("expected a text conflict")
	}
	if !out.Conflicted {
		t.Fatal("expected Outcome.Conflicted")
	}
	got := string(out.Merged)
	if !strings.Contains(got, "<<<<<<< mode/claude/_") {
		t.Fatalf("expected layer-labeled marker, got:\n%s", got)
	}
	if !strings.Contains(got, ">>>>>>> mode/claude/scope/lang/rust/_") {
		t.Fatalf("expected layer-labeled marker, got:\n%s", got)
	}
	if strings.Contains(got, "ours") || strings.Contains(got, "theirs") {
		t.Fatalf("generic ours/theirs labels must not appear, got:\n%s", got)
	}
}

func TestIdenticalContentAcrossLayersIsNoConflict(t *testing.T) {
	out, err := MergeFile("same.txt", FormatText, []Contribution{
		{LayerRef: "a", Content: []byte("same\n")},
		{LayerRef: "b", Content: []byte("same\n")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Conflicted {
		t.Fatal("identical content across layers must not conflict")
	}
}

func TestBinaryConflictWrapsMarkers(t *testing.T) {
	out, err := MergeFile("img.bin", FormatBinary, []Contribution{
		{LayerRef: "a", Content: []byte{0x01, 0x02}},
		{LayerRef: "b", Content: []byte{0x03, 0x04}},
	}, nil)
	if err == nil {
		t.Fatal("expected a binary conflict")
	}
	if !out.Conflicted {
		t.Fatal("expected Outcome.Conflicted")
	}
	if !strings.Contains(string(out.Merged), "<<<<<<< a") {
		t.Fatalf("expected marker-wrapped binary content, got %v", out.Merged)
	}
}

func TestArrayMergeByIDKey(t *testing.T) {
	out, err := MergeFile("list.json", FormatJSON, []Contribution{
		{LayerRef: "low", Content: []byte(`{"items":[{"id":1,"name":"a"}]}`)},
		{LayerRef: "high", Content: []byte(`{"items":[{"id":1,"name":"b"},{"id":2,"name":"c"}]}`)},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out.Merged)
	if !strings.Contains(got, `"name": "b"`) || !strings.Contains(got, `"name": "c"`) {
		t.Fatalf("expected array merge-by-id, got %s", got)
	}
}

func TestArrayWithoutCommonKeyFullyReplaces(t *testing.T) {
	out, err := MergeFile("list.json", FormatJSON, []Contribution{
		{LayerRef: "low", Content: []byte(`{"items":[1,2,3]}`)},
		{LayerRef: "high", Content: []byte(`{"items":[4,5]}`)},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out.Merged)
	if strings.Contains(got, "1") || !strings.Contains(got, "4") {
		t.Fatalf("expected full array replace, got %s", got)
	}
}

func TestMergeTOMLAndINIRoundTrip(t *testing.T) {
	out, err := MergeFile("Cargo.toml", FormatTOML, []Contribution{
		{LayerRef: "low", Content: []byte("[package]\nname = \"a\"\n")},
		{LayerRef: "high", Content: []byte("[package]\nversion = \"1.0\"\n")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out.Merged)
	if !strings.Contains(got, "name") || !strings.Contains(got, "version") {
		t.Fatalf("expected merged toml table, got %s", got)
	}

	iniOut, err := MergeFile("settings.ini", FormatINI, []Contribution{
		{LayerRef: "low", Content: []byte("[server]\nport=8080\n")},
		{LayerRef: "high", Content: []byte("[server]\nhost=localhost\n")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	iniGot := string(iniOut.Merged)
	if !strings.Contains(iniGot, "port") || !strings.Contains(iniGot, "host") {
		t.Fatalf("expected merged ini section, got %s", iniGot)
	}
}
