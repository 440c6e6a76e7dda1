// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"log/slog"
	"path/filepath"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/schema"
)

// SubnetSetupScript is run from the subnet root after cloning when present.
const SubnetSetupScript = "setup.sh"

func (i *Installer) installSubnet(ctx context.Context, mod module.ManagedModule, source string) (*Report, error) {
	if exists(mod.SourceRoot) {
		slog.Info("subnet directory exists, skipping clone", "module", mod.Name)
	} else {
		slog.Info("cloning subnet", "module", mod.Name, "url", source)
		if err := i.cloner().Clone(ctx, source, mod.SourceRoot); err != nil {
			return nil, err
		}
	}

	if setup := filepath.Join(mod.SourceRoot, SubnetSetupScript); exists(setup) {
		if err := i.runScript(ctx, mod.SourceRoot, "run "+SubnetSetupScript, "bash", absOrSelf(setup)); err != nil {
			return nil, err
		}
	}

	h, err := i.Envs.Ensure(ctx, mod)
	if err != nil {
		return nil, err
	}
	if err := i.Envs.InstallDependencies(ctx, h, mod, ""); err != nil {
		return nil, err
	}

	cfg, err := schema.Extract(mod.SourceRoot)
	if err != nil {
		return nil, err
	}
	return &Report{Module: mod, Handle: h, Schema: cfg}, nil
}
