// Command researchcopilot is a terminal client for the Research Copilot
// assistant.
package main

import "github.com/diogo/researchcopilot/internal/commands"

func main() {
	commands.Execute()
}
