package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type pdfMeta struct {
	Type     string `yaml:"type"`
	Revision int    `yaml:"revision"`
	TOCText  bool   `yaml:"toc_txt"`
}

type frontMatter struct {
	Title string  `yaml:"title"`
	PDF   pdfMeta `yaml:"pdf"`
}

// ---------------------------------------------------------------------------
// TestDecode - lenient and strict modes
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		strict  bool
		want    frontMatter
		wantErr error
	}{
		{
			name:  "nested pdf block",
			input: "title: Guide\npdf:\n  type: Manual\n  revision: 3\n  toc_txt: true\n",
			want:  frontMatter{Title: "Guide", PDF: pdfMeta{Type: "Manual", Revision: 3, TOCText: true}},
		},
		{
			name:  "unknown keys ignored when lenient",
			input: "title: Guide\nauthor: Ops Team\n",
			want:  frontMatter{Title: "Guide"},
		},
		{
			name:    "unknown keys rejected when strict",
			input:   "title: Guide\npdf:\n  colour: blue\n",
			strict:  true,
			wantErr: ErrSyntax,
		},
		{
			name:   "strict accepts known keys",
			input:  "pdf:\n  revision: 1\n",
			strict: true,
			want:   frontMatter{PDF: pdfMeta{Revision: 1}},
		},
		{
			name:    "type mismatch",
			input:   "pdf:\n  revision: three\n",
			wantErr: ErrSyntax,
		},
		{
			name:    "broken indentation",
			input:   "title: Guide\n  pdf: [\n",
			wantErr: ErrSyntax,
		},
		{
			name:    "empty input",
			wantErr: ErrNilData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got frontMatter
			decodeFn := Unmarshal
			if tt.strict {
				decodeFn = UnmarshalStrict
			}
			err := decodeFn([]byte(tt.input), &got)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("decoded %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_Map(t *testing.T) {
	t.Parallel()

	var meta map[string]any
	if err := Unmarshal([]byte("pdf:\n  build: false\n"), &meta); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	pdf, ok := meta["pdf"].(map[string]any)
	if !ok || pdf["build"] != false {
		t.Errorf("meta = %#v", meta)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	t.Run("nil destination", func(t *testing.T) {
		t.Parallel()

		if err := Unmarshal([]byte("a: 1"), nil); !errors.Is(err, ErrNilDestination) {
			t.Errorf("error = %v, want ErrNilDestination", err)
		}
	})

	t.Run("syntax error names the field", func(t *testing.T) {
		t.Parallel()

		var fm frontMatter
		err := UnmarshalStrict([]byte("pdf:\n  colour: blue\n"), &fm)
		if err == nil {
			t.Fatal("expected an error for the unknown field")
		}
		if !strings.Contains(err.Error(), "colour") {
			t.Errorf("error = %v, want mention of the unknown field", err)
		}
		if !strings.HasPrefix(err.Error(), "yamlutil:") {
			t.Errorf("error %q should carry the package prefix", err)
		}
	})
}

// Not parallel: MaxInputSize is package state.
func TestInputSizeLimit(t *testing.T) {
	orig := MaxInputSize
	t.Cleanup(func() { MaxInputSize = orig })
	MaxInputSize = 16

	var fm frontMatter
	if err := Unmarshal([]byte("title: 123456789"), &fm); err != nil {
		t.Errorf("input at the limit: %v", err)
	}

	long := []byte("title: 1234567890")
	for name, fn := range map[string]func([]byte, any) error{"lenient": Unmarshal, "strict": UnmarshalStrict} {
		err := fn(long, &fm)
		if !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("%s: error = %v, want ErrInputTooLarge", name, err)
			continue
		}
		if !strings.Contains(err.Error(), "17 bytes (max 16)") {
			t.Errorf("%s: error %q should report the sizes", name, err)
		}
	}
}
