// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"modvalidator-cli/internal/module"
)

// maxScriptSize bounds the registrar response.
const maxScriptSize = 16 << 20

// SetupScriptName returns the file the registrar payload is saved as.
func SetupScriptName(name string) string { return "setup_" + name + module.ScriptExt }

// InstallScriptName returns the optional shell installer shipped by a setup script.
func InstallScriptName(name string) string { return "install_" + name + ".sh" }

func (i *Installer) installInference(ctx context.Context, mod module.ManagedModule, source string, opts Options) (*Report, error) {
	setupScript := filepath.Join(mod.SourceRoot, SetupScriptName(mod.Name))

	if exists(mod.SourceRoot) {
		slog.Info("module directory exists, skipping download", "module", mod.Name)
	} else {
		if err := os.MkdirAll(mod.SourceRoot, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", mod.SourceRoot, err)
		}
		content, err := i.fetchScript(ctx, i.scriptURL(mod.Name, source))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(setupScript, content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write script to %s: %w", setupScript, err)
		}
		slog.Debug("setup script saved", "path", setupScript)
	}

	h, err := i.Envs.Ensure(ctx, mod)
	if err != nil {
		return nil, err
	}

	if exists(setupScript) {
		if err := i.runScript(ctx, "", "run "+SetupScriptName(mod.Name), h.InterpreterPath, setupScript); err != nil {
			return nil, err
		}
	}
	if installScript := filepath.Join(mod.SourceRoot, InstallScriptName(mod.Name)); exists(installScript) {
		if err := i.runScript(ctx, "", "run "+InstallScriptName(mod.Name), "bash", installScript); err != nil {
			return nil, err
		}
	}

	if err := i.recordEndpoint(mod, opts); err != nil {
		return nil, err
	}
	return &Report{Module: mod, Handle: h}, nil
}

// scriptURL returns source when it is a URL, otherwise the registrar URL for name.
func (i *Installer) scriptURL(name, source string) string {
	if strings.Contains(source, "://") {
		return source
	}
	base := i.RegistrarURL
	if base == "" {
		base = DefaultRegistrarURL
	}
	return strings.TrimRight(base, "/") + "/modules/" + name
}

// fetchScript downloads and decodes a setup script.
func (i *Installer) fetchScript(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := i.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	body, err := readAllLimited(resp.Body, maxScriptSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	return DecodeScript(string(body)), nil
}

// DecodeScript cleans a registrar payload (surrounding quotes, backslashes and
// embedded quotes are removed) and base64-decodes it. Payloads that are not valid
// base64, or that do not decode to UTF-8 text, are returned cleaned but undecoded.
func DecodeScript(payload string) []byte {
	cleaned := strings.TrimSpace(payload)
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.ReplaceAll(cleaned, `\`, "")
	cleaned = strings.ReplaceAll(cleaned, `"`, "")

	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil || !utf8.Valid(decoded) {
		return []byte(cleaned)
	}
	return decoded
}

// recordEndpoint appends the module's API host and port to the host env file.
func (i *Installer) recordEndpoint(mod module.ManagedModule, opts Options) error {
	var lines []string
	prefix := mod.EnvVarPrefix()
	if opts.APIPort != "" {
		lines = append(lines, prefix+"_API_PORT="+opts.APIPort)
	}
	if opts.APIHost != "" {
		lines = append(lines, prefix+"_API_HOST="+opts.APIHost)
	}
	if len(lines) == 0 {
		return nil
	}

	envFile := i.HostEnvFile
	if envFile == "" {
		envFile = ".env"
	}
	f, err := os.OpenFile(envFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", envFile, err)
	}
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", envFile, err)
	}
	return f.Close()
}
