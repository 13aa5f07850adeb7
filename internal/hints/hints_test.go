package hints

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestForBrowserConnect - environment driven
// ---------------------------------------------------------------------------

// Not parallel: the cases set environment variables and swap IsInContainer.
func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		container   bool
		wantSandbox bool
		wantBin     bool
	}{
		{
			name:        "github actions",
			env:         map[string]string{"GITHUB_ACTIONS": "true"},
			wantSandbox: true,
			wantBin:     true,
		},
		{
			name:        "docker",
			container:   true,
			wantSandbox: true,
			wantBin:     true,
		},
		{
			name:      "sandbox already disabled",
			env:       map[string]string{"CI": "1", "ROD_NO_SANDBOX": "1"},
			container: true,
			wantBin:   true,
		},
		{
			name: "browser bin set on a workstation",
			env:  map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"},
		},
		{
			name:    "plain workstation",
			wantBin: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range append([]string{"ROD_NO_SANDBOX", "ROD_BROWSER_BIN"}, ciVars...) {
				t.Setenv(v, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			orig := IsInContainer
			t.Cleanup(func() { IsInContainer = orig })
			IsInContainer = func() bool { return tt.container }

			hint := ForBrowserConnect()

			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint = %v, want %v: %q", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("browser bin hint = %v, want %v: %q", got, tt.wantBin, hint)
			}
			if (tt.wantSandbox || tt.wantBin) != (hint != "") {
				t.Errorf("unexpected hint presence: %q", hint)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Static hints
// ---------------------------------------------------------------------------

func TestHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hint string
		want string
	}{
		{"timeout", ForTimeout(), "--timeout"},
		{"config without user path", ForConfigNotFound(nil), "use --config"},
		{"config with user path", ForConfigNotFound([]string{"./sitepdf.yaml", "~/.config/go-sitepdf/sitepdf.yaml"}),
			"or create ~/.config/go-sitepdf/sitepdf.yaml"},
		{"site dir", ForSiteDir(), "site/"},
		{"templates in lookup order", ForTemplateNotFound([]string{"manual_cover", "cover", "default_cover"}),
			"manual_cover, cover, default_cover"},
		{"cover image", ForCoverImage(), "SVG, or a URL"},
		{"toc text", ForTOCText(), "toc_numbering"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint format inconsistent: %q", tt.hint)
			}
			if !strings.Contains(tt.hint, tt.want) {
				t.Errorf("hint %q should contain %q", tt.hint, tt.want)
			}
		})
	}
}

func TestForTemplateNotFound_Empty(t *testing.T) {
	t.Parallel()

	if got := ForTemplateNotFound(nil); got != "" {
		t.Errorf("ForTemplateNotFound(nil) = %q, want empty", got)
	}
}
