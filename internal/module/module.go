// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"modvalidator-cli/pkg/platform"
)

const (
	// KindInference is a single-script inference module fetched from the registrar.
	KindInference Kind = "inference"
	// KindSubnet is a repository-backed subnet module.
	KindSubnet Kind = "subnet"

	// DefaultModulesDir is where inference modules are installed.
	DefaultModulesDir = "modules"
	// DefaultSubnetsDir is where subnet modules are installed.
	DefaultSubnetsDir = "subnets"

	// ScriptExt is the file extension of the foreign language sources.
	ScriptExt = ".py"
)

var (
	// ErrInvalidKind is returned when a Kind value is not recognized.
	ErrInvalidKind = errors.New("invalid module kind")
	// ErrInvalidName is returned when a module name is empty or escapes its directory.
	ErrInvalidName = errors.New("invalid module name")
)

type (
	// Kind selects the directory convention and default entry point of a module.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value string
	}

	// ManagedModule identifies one foreign module on disk.
	ManagedModule struct {
		// Name is the unique module identifier.
		Name string
		// Kind determines directory convention and default entry-point naming.
		Kind Kind
		// SourceRoot is the module's source tree.
		SourceRoot string
	}

	// Layout holds the root directories for each module kind.
	Layout struct {
		ModulesDir string
		SubnetsDir string
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid module kind %q (expected inference or subnet)", e.Value)
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is for programmatic detection.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// ParseKind converts a user or registry supplied string to a Kind.
// The plural "subnets" is accepted because that is how the installer historically
// labelled repository modules.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inference":
		return KindInference, nil
	case "subnet", "subnets":
		return KindSubnet, nil
	default:
		return "", &InvalidKindError{Value: s}
	}
}

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// DefaultLayout returns the conventional layout relative to the working directory.
func DefaultLayout() Layout {
	return Layout{ModulesDir: DefaultModulesDir, SubnetsDir: DefaultSubnetsDir}
}

// Dir returns the directory holding modules of the given kind.
func (l Layout) Dir(kind Kind) string {
	if kind == KindSubnet {
		return l.SubnetsDir
	}
	return l.ModulesDir
}

// Module builds a ManagedModule for name and kind using this layout.
func (l Layout) Module(name string, kind Kind) (ManagedModule, error) {
	if err := ValidateName(name); err != nil {
		return ManagedModule{}, err
	}
	if kind != KindInference && kind != KindSubnet {
		return ManagedModule{}, &InvalidKindError{Value: string(kind)}
	}
	return ManagedModule{
		Name:       name,
		Kind:       kind,
		SourceRoot: filepath.Join(l.Dir(kind), name),
	}, nil
}

// ValidateName rejects names that are empty or would resolve outside the kind directory.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if platform.IsReservedName(name) {
		return fmt.Errorf("%w: %q is a reserved device name", ErrInvalidName, name)
	}
	return nil
}

// DefaultEntryPoint returns the script an inference module is run through
// (<name>.py inside the source root). Subnet modules have no default; their
// entry point is located at launch time.
func (m ManagedModule) DefaultEntryPoint() string {
	if m.Kind != KindInference {
		return ""
	}
	return filepath.Join(m.SourceRoot, m.Name+ScriptExt)
}

// EnvVarPrefix returns the upper-cased prefix used for module-specific host settings
// such as <NAME>_API_PORT.
func (m ManagedModule) EnvVarPrefix() string {
	return strings.ToUpper(strings.ReplaceAll(m.Name, "-", "_"))
}
