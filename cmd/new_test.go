package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spectree/internal/specdoc"
)

func TestNewChangeCommand(t *testing.T) {
	specsDir := cleanTree(t)
	app, out, _ := testApp(t, specsDir, false)

	err := runCommand(t, app, "", "new", "change", "Add billing!",
		"--issue", "10", "--scope", "components/billing")
	if err != nil {
		t.Fatalf("new change failed: %v", err)
	}
	if !strings.Contains(out.String(), "Created") {
		t.Errorf("output: %q", out.String())
	}

	path := filepath.Join(specsDir, "changes", "open", "003-add-billing", "SPEC.md")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading scaffold: %v", err)
	}
	spec, err := specdoc.ParseSpec(path, raw)
	if err != nil {
		t.Fatalf("scaffold does not parse: %v", err)
	}
	if spec.ID != "003" {
		t.Errorf("ID: got %q, want %q", spec.ID, "003")
	}
	if spec.Status != specdoc.StatusDraft {
		t.Errorf("Status: got %q, want draft", spec.Status)
	}
	if spec.IssueRef != "10" {
		t.Errorf("IssueRef: got %q, want %q", spec.IssueRef, "10")
	}
	if len(spec.Scope) != 1 || spec.Scope[0] != "components/billing" {
		t.Errorf("Scope: got %v", spec.Scope)
	}
}

func TestNewChangeCommand_RejectsUnknownType(t *testing.T) {
	app, _, _ := testApp(t, cleanTree(t), false)

	if err := runCommand(t, app, "", "new", "change", "x", "--type", "chore"); err == nil {
		t.Fatal("unknown change type should fail")
	}
}

func TestNewIssueCommand(t *testing.T) {
	specsDir := cleanTree(t)
	app, _, _ := testApp(t, specsDir, false)

	if err := runCommand(t, app, "", "new", "issue", "Billing is wrong", "--priority", "high"); err != nil {
		t.Fatalf("new issue failed: %v", err)
	}

	path := filepath.Join(specsDir, "issues", "open", "011-billing-is-wrong.md")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading scaffold: %v", err)
	}
	issue, err := specdoc.ParseIssue(path, raw)
	if err != nil {
		t.Fatalf("scaffold does not parse: %v", err)
	}
	if issue.ID != "011" {
		t.Errorf("ID: got %q, want %q", issue.ID, "011")
	}
	if issue.Priority != specdoc.PriorityHigh {
		t.Errorf("Priority: got %q, want high", issue.Priority)
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		existing []string
		want     string
	}{
		{nil, "001"},
		{[]string{"001", "002"}, "003"},
		{[]string{"042"}, "043"},
		{[]string{"009", "abc"}, "010"},
		{[]string{"999"}, "1000"},
	}
	for _, tc := range tests {
		if got := nextID(tc.existing); got != tc.want {
			t.Errorf("nextID(%v): got %q, want %q", tc.existing, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add login", "add-login"},
		{"Fix  the   leak!", "fix-the-leak"},
		{"v2: new API", "v2-new-api"},
		{"---", ""},
	}
	for _, tc := range tests {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
