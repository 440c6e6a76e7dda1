// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ModuleNotFoundId Id = iota + 1
	InvalidModuleNameId
	EnvironmentProvisionFailedId
	EnvironmentActivationFailedId
	SchemaExtractionFailedId
	CommandNotFoundId
	MissingArgumentId
	ForwardNotFoundId
	LaunchScriptNotFoundId
	InferenceNotFoundId
	ExecutionFailedId
	ConfigLoadFailedId
	ShellNotFoundId
	InstallFailedId
	InterpreterNotFoundId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the entry as terminal Markdown using the glamour style at stylePath
// (or a standard style name such as "dark" or "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

The module is not installed in the modules or subnets directory.

## Things you can try:
- List what is installed:
~~~
$ modvalidator list
~~~

- Install the module first:
~~~
$ modvalidator install <name-or-git-url>
~~~

- Check ` + "`modules_dir`" + ` and ` + "`subnets_dir`" + ` in your config file`,
	}

	invalidModuleNameIssue = &Issue{
		id: InvalidModuleNameId,
		mdMsg: `
# Invalid module name!

Module names become directory names and environment variable prefixes. A name must
not be empty, ` + "`.`" + ` or ` + "`..`" + `, must not contain path separators, and must not be a
reserved device name such as ` + "`con`" + ` or ` + "`nul`" + `.`,
	}

	environmentProvisionFailedIssue = &Issue{
		id: EnvironmentProvisionFailedId,
		mdMsg: `
# Could not create the isolation environment!

Creating the virtual environment or installing its dependencies failed.

## Things you can try:
- Check that the base interpreter works and has the venv module:
~~~
$ python3 -m venv --help
~~~

- Set a different interpreter with ` + "`base_interpreter`" + ` in your config file
- Remove the half-created environment directory (` + "`.<name>`" + `) and retry
- Run with ` + "`--verbose`" + ` to see the installer output`,
		extLinks: []HttpLink{"https://docs.python.org/3/library/venv.html"},
	}

	environmentActivationFailedIssue = &Issue{
		id: EnvironmentActivationFailedId,
		mdMsg: `
# Could not activate the isolation environment!

Sourcing the environment's activation script failed, so no command was started.

## Things you can try:
- Check that ` + "`bin/activate`" + ` exists inside the environment directory
- Check the module's ` + "`.env`" + ` file for syntax the shell cannot read
- Choose a different shell with ` + "`shell`" + ` in your config file`,
	}

	schemaExtractionFailedIssue = &Issue{
		id: SchemaExtractionFailedId,
		mdMsg: `
# Could not read the module's commands!

One of the module's top-level source files could not be read, so its command schema
was discarded.

## Things you can try:
- Check the file permissions inside the module directory
- Reinstall the module`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

The module declares no command with that name.

## Things you can try:
- List the declared commands:
~~~
$ modvalidator parse-config <name>
~~~`,
	}

	missingArgumentIssue = &Issue{
		id: MissingArgumentId,
		mdMsg: `
# Missing argument!

A parameter without a default value was not supplied.

## Things you can try:
- Check the command's parameters:
~~~
$ modvalidator parse-config <name> --format json
~~~`,
	}

	forwardNotFoundIssue = &Issue{
		id: ForwardNotFoundId,
		mdMsg: `
# No forward function found!

The launch script has no ` + "`def forward(...):`" + ` header, so it cannot be redirected
to an inference module. The script was left unchanged.`,
	}

	launchScriptNotFoundIssue = &Issue{
		id: LaunchScriptNotFoundId,
		mdMsg: `
# Launch script not found!

No ` + "`miner.py`" + ` or ` + "`validator.py`" + ` was found in the subnet checkout.

## Things you can try:
- Pass the script explicitly:
~~~
$ modvalidator launch-miner <name> --script neurons/miner.py
~~~`,
	}

	inferenceNotFoundIssue = &Issue{
		id: InferenceNotFoundId,
		mdMsg: `
# No inference module referenced!

The launch script does not mention any installed inference module.

## Things you can try:
- Install the inference module the subnet expects
- Patch the script by hand:
~~~
$ modvalidator patch <script> <inference>
~~~`,
	}

	executionFailedIssue = &Issue{
		id: ExecutionFailedId,
		mdMsg: `
# Module command failed!

The module ran but exited with a non-zero status. Its standard error was echoed above.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see the exact command line
- Check the module's environment variables in its ` + "`.env`" + ` file`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show the effective configuration:
~~~
$ modvalidator config show
~~~

- Write a fresh default file:
~~~
$ modvalidator config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

No usable shell was found to activate environments and run modules.

## Things you can try:
- Install bash, or set ` + "`shell`" + ` in your config file
- On Windows, make sure ` + "`cmd.exe`" + ` is on the PATH`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Installation failed!

The module source could not be fetched or its setup script failed.

## Things you can try:
- Check network access to the registrar or git host
- For private repositories set ` + "`GITHUB_TOKEN`" + ` or load an SSH key into your agent
- Remove the partial module directory and retry`,
	}

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# Interpreter not found!

The shell could not find the program it was asked to run (exit status 127). The
module's isolated environment is most likely incomplete.

## Things you can try:
- Remove the module's environment directory and run the command again to recreate it
- Check that ` + "`base_interpreter`" + ` in your config points at a working Python`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():              moduleNotFoundIssue,
		invalidModuleNameIssue.Id():           invalidModuleNameIssue,
		environmentProvisionFailedIssue.Id():  environmentProvisionFailedIssue,
		environmentActivationFailedIssue.Id(): environmentActivationFailedIssue,
		schemaExtractionFailedIssue.Id():      schemaExtractionFailedIssue,
		commandNotFoundIssue.Id():             commandNotFoundIssue,
		missingArgumentIssue.Id():             missingArgumentIssue,
		forwardNotFoundIssue.Id():             forwardNotFoundIssue,
		launchScriptNotFoundIssue.Id():        launchScriptNotFoundIssue,
		inferenceNotFoundIssue.Id():           inferenceNotFoundIssue,
		executionFailedIssue.Id():             executionFailedIssue,
		configLoadFailedIssue.Id():            configLoadFailedIssue,
		shellNotFoundIssue.Id():               shellNotFoundIssue,
		installFailedIssue.Id():               installFailedIssue,
		interpreterNotFoundIssue.Id():         interpreterNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	vals := maps.Values(issues)
	slices.SortFunc(vals, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return vals
}

func Get(id Id) *Issue {
	return issues[id]
}
