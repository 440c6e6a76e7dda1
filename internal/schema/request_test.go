// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"strings"
	"testing"
)

type quoteFunc func(string) (string, error)

func (f quoteFunc) Quote(word string) (string, error) { return f(word) }

func testConfig() *ModuleConfig {
	return scanSource(`
@app.command("transfer")
def transfer(
    dest: str,
    amount: float = typer.Argument(default="1.0"),
    memo: str = typer.Argument("none"),
    fee: Optional[int] = typer.Option(None, help="fee in units"),
):
    pass

@app.command("ping")
def ping():
    pass
`, "cli.py")
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	tests := []struct {
		name    string
		command string
		args    map[string]string
		want    []string
	}{
		{
			name:    "required only",
			command: "transfer",
			args:    map[string]string{"dest": "alice"},
			want:    []string{"transfer", "alice"},
		},
		{
			name:    "default fills gap",
			command: "transfer",
			args:    map[string]string{"dest": "alice", "memo": "rent"},
			want:    []string{"transfer", "alice", "1.0", "rent"},
		},
		{
			name:    "option supplied",
			command: "transfer",
			args:    map[string]string{"dest": "bob", "fee": "3"},
			want:    []string{"transfer", "bob", "--fee", "3"},
		},
		{
			name:    "no parameters",
			command: "ping",
			args:    nil,
			want:    []string{"ping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv, err := ValidateRequest(cfg, tt.command, tt.args)
			if err != nil {
				t.Fatalf("ValidateRequest() error = %v", err)
			}
			if got := strings.Join(inv.Argv, " "); got != strings.Join(tt.want, " ") {
				t.Errorf("Argv = %q, want %q", inv.Argv, tt.want)
			}
			if inv.EntryPoint != "cli.py" {
				t.Errorf("EntryPoint = %q, want cli.py", inv.EntryPoint)
			}
		})
	}
}

func TestValidateRequestMissingArgument(t *testing.T) {
	t.Parallel()

	_, err := ValidateRequest(testConfig(), "transfer", map[string]string{"memo": "x"})

	var missing *MissingArgumentError
	if !errors.As(err, &missing) {
		t.Fatalf("ValidateRequest() error = %v, want *MissingArgumentError", err)
	}
	if missing.Parameter != "dest" {
		t.Errorf("Parameter = %q, want dest", missing.Parameter)
	}
	if err.Error() != "Missing argument: dest" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrMissingArgument) {
		t.Error("errors.Is(err, ErrMissingArgument) = false")
	}
}

func TestValidateRequestUnknownCommand(t *testing.T) {
	t.Parallel()

	if _, err := ValidateRequest(testConfig(), "nope", nil); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("ValidateRequest() error = %v, want ErrCommandNotFound", err)
	}
}

func TestInvocationArgs(t *testing.T) {
	t.Parallel()

	inv := &Invocation{Argv: []string{"greet", "big world"}}
	q := quoteFunc(func(w string) (string, error) {
		if strings.Contains(w, " ") {
			return "'" + w + "'", nil
		}
		return w, nil
	})
	got, err := inv.Args(q)
	if err != nil {
		t.Fatalf("Args() error = %v", err)
	}
	if want := "greet 'big world'"; got != want {
		t.Errorf("Args() = %q, want %q", got, want)
	}

	failing := quoteFunc(func(string) (string, error) { return "", errors.New("nope") })
	if _, err := inv.Args(failing); err == nil {
		t.Error("Args() error = nil, want quoting error")
	}
}
