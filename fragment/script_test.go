package fragment

import (
	"strings"
	"testing"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   Mapping
	}{
		{
			name: "assignment statements",
			script: `(function() {var implementors = {};
implementors["libc"] = [];
implementors["ndarray"] = ["impl A for ArrayBase"];
implementors["sprs"] = ["impl A for ArrayBase<usize>"];
if (window.register_implementors) {
window.register_implementors(implementors);
} else {
window.pending_implementors = implementors;
}
})()`,
			want: Mapping{
				"libc":    {},
				"ndarray": {"impl A for ArrayBase"},
				"sprs":    {"impl A for ArrayBase<usize>"},
			},
		},
		{
			name: "object literal",
			script: `(function() {
	var implementors = {"ndarray": ["impl A for ArrayBase"], libc: []};
	if (window.register_implementors) {
		window.register_implementors(implementors);
	} else {
		window.pending_implementors = implementors;
	}
})()`,
			want: Mapping{
				"ndarray": {"impl A for ArrayBase"},
				"libc":    {},
			},
		},
		{
			name: "comments and formatting ignored",
			script: `// generated file, do not edit
(function() {
	var implementors = {}; /* payload follows */
	implementors [ "serde" ] = [ "impl Serialize for Value" , "impl Deserialize for Value" ] ;
})()`,
			want: Mapping{
				"serde": {"impl Serialize for Value", "impl Deserialize for Value"},
			},
		},
		{
			name:   "single quoted strings",
			script: `implementors['rayon'] = ['impl ParallelIterator for Chunks'];`,
			want:   Mapping{"rayon": {"impl ParallelIterator for Chunks"}},
		},
		{
			name: "repeated key keeps last",
			script: `implementors["tokio"] = ["impl Future for Sleep"];
implementors["tokio"] = ["impl Stream for Interval"];`,
			want: Mapping{"tokio": {"impl Stream for Interval"}},
		},
		{
			name:   "multiple entries preserve order",
			script: `implementors["ndarray"] = ["impl A for ArrayBase", "impl A for ArcArray", "impl A for CowArray"];`,
			want: Mapping{"ndarray": {
				"impl A for ArrayBase",
				"impl A for ArcArray",
				"impl A for CowArray",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript([]byte(tt.script))
			if err != nil {
				t.Fatalf("ParseScript() returned %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseScript() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseScriptEmptySequence(t *testing.T) {
	got, err := ParseScript([]byte(`implementors["libc"] = [];`))
	if err != nil {
		t.Fatalf("ParseScript() returned %v", err)
	}
	entries, ok := got["libc"]
	if !ok {
		t.Fatal(`key "libc" absent, want present with zero entries`)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf(`got["libc"] = %#v, want empty non-nil sequence`, entries)
	}
}

func TestParseScriptEscapes(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"newline", `implementors["a"] = ["line\nbreak"];`, "line\nbreak"},
		{"tab", `implementors["a"] = ["col\tcol"];`, "col\tcol"},
		{"quote", `implementors["a"] = ["say \"hi\""];`, `say "hi"`},
		{"backslash", `implementors["a"] = ["a\\b"];`, `a\b`},
		{"identity escape", `implementors["a"] = ["\q"];`, "q"},
		{"hex", `implementors["a"] = ["\x41"];`, "A"},
		{"unicode", `implementors["a"] = ["\u0041"];`, "A"},
		{"unicode braced", `implementors["a"] = ["\u{1F600}"];`, "\U0001F600"},
		{"surrogate pair", `implementors["a"] = ["\ud83d\ude00"];`, "\U0001F600"},
		{"line continuation", "implementors[\"a\"] = [\"one\\\ntwo\"];", "onetwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript([]byte(tt.script))
			if err != nil {
				t.Fatalf("ParseScript() returned %v", err)
			}
			entries := got["a"]
			if len(entries) != 1 || string(entries[0]) != tt.want {
				t.Errorf("entry = %q, want %q", entries, tt.want)
			}
		})
	}
}

func TestParseScriptEscapedKey(t *testing.T) {
	got, err := ParseScript([]byte(`implementors["nd\u0061rray"] = [];`))
	if err != nil {
		t.Fatalf("ParseScript() returned %v", err)
	}
	if _, ok := got["ndarray"]; !ok {
		t.Errorf(`ParseScript() keys = %v, want "ndarray"`, got.Packages())
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"no payload", `(function() {var x = 1;})()`},
		{"empty", ``},
		{"non-string entry", `implementors["a"] = [1];`},
		{"unterminated entry list", `implementors["a"] = ["x"`},
		{"unterminated object", `var implementors = {"a": []`},
		{"missing assignment", `implementors["a"];`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseScript([]byte(tt.script)); err == nil {
				t.Errorf("ParseScript() = %v, want error", got)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	m := Mapping{
		"sprs":    {"impl A for ArrayBase<usize>"},
		"libc":    {},
		"ndarray": {"impl A for ArrayBase"},
	}

	want := `(function() {var implementors = {};
implementors["libc"] = [];
implementors["ndarray"] = ["impl A for ArrayBase"];
implementors["sprs"] = ["impl A for ArrayBase<usize>"];
if (window.register_implementors) {
window.register_implementors(implementors);
} else {
window.pending_implementors = implementors;
}
})()
`
	if got := string(Encode(m)); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeEscaping(t *testing.T) {
	m := Mapping{`pkg"x`: {"line\nbreak", `back\slash`, "sep\u2028here"}}
	got := string(Encode(m))

	for _, wantSub := range []string{`"pkg\"x"`, `"line\nbreak"`, `"back\\slash"`, `"sep\u2028here"`} {
		if !strings.Contains(got, wantSub) {
			t.Errorf("Encode() output lacks %s:\n%s", wantSub, got)
		}
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
	}{
		{"empty", Mapping{}},
		{"single empty package", Mapping{"libc": {}}},
		{"plain", Mapping{"ndarray": {"impl A for ArrayBase"}, "sprs": {"impl A for ArrayBase<usize>"}}},
		{"awkward strings", Mapping{
			`quo"ted`: {"multi\nline", "tab\tbed", `back\slash`, "uni😀code"},
			"libc":    {},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(Encode(tt.m))
			if err != nil {
				t.Fatalf("ParseScript(Encode()) returned %v", err)
			}
			if !got.Equal(tt.m) {
				t.Errorf("round trip = %v, want %v", got, tt.m)
			}
		})
	}
}
