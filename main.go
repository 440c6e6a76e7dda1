// SPDX-License-Identifier: MPL-2.0

package main

import cmd "modvalidator-cli/cmd/modvalidator"

func main() {
	cmd.Execute()
}
