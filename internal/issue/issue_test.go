// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(InterpreterNotFoundId) {
		t.Fatalf("len(Values()) = %d, want %d", len(values), InterpreterNotFoundId)
	}
	for i, is := range values {
		if want := Id(i + 1); is.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, is.Id(), want)
		}
		if strings.TrimSpace(string(is.MarkdownMsg())) == "" {
			t.Errorf("issue %d has empty markdown", is.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	if got := Get(MissingArgumentId); got == nil || !strings.Contains(string(got.MarkdownMsg()), "Missing argument") {
		t.Errorf("Get(MissingArgumentId) = %v, want missing-argument entry", got)
	}
	if got := Get(Id(0)); got != nil {
		t.Errorf("Get(0) = %v, want nil", got)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	is := Get(ConfigLoadFailedId)
	links := is.ExtLinks()
	if len(links) == 0 {
		t.Fatal("ExtLinks() is empty")
	}
	links[0] = "modified"
	if is.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() returned the internal slice")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	for _, is := range Values() {
		out, err := is.Render("notty")
		if err != nil {
			t.Errorf("Render(%d) error = %v", is.Id(), err)
			continue
		}
		if out == "" {
			t.Errorf("Render(%d) returned empty output", is.Id())
		}
	}

	out, err := Get(EnvironmentProvisionFailedId).Render("notty")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "See also") || !strings.Contains(out, "docs.python.org") {
		t.Errorf("Render() output missing links section:\n%s", out)
	}
}
