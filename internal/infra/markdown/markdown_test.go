package markdown_test

import (
	"strings"
	"testing"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/markdown"
)

func TestRender_Bold(t *testing.T) {
	r := markdown.NewRenderer()

	out, err := r.Render("Aqui estão os dados de **Ana Souza**")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<strong>Ana Souza</strong>") {
		t.Errorf("expected bold markup, got %q", out)
	}
}

func TestRender_List(t *testing.T) {
	r := markdown.NewRenderer()

	out, err := r.Render("- **Nível:** Ouro\n- **Email:** ana@coop.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<ul>") || strings.Count(out, "<li>") != 2 {
		t.Errorf("expected a two-item list, got %q", out)
	}
}

func TestRender_StripsScript(t *testing.T) {
	r := markdown.NewRenderer()

	out, err := r.Render("oi <script>alert(1)</script> <a href=\"javascript:alert(1)\">x</a>")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(out, "<script") || strings.Contains(out, "javascript:") {
		t.Errorf("expected unsafe markup to be removed, got %q", out)
	}
}
