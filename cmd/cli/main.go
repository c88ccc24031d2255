// Command cli is the reachability engine's command-line entrypoint:
// one-shot inference over a network document (infer) and the
// long-running scheduler/API service (serve).
package main

import "github.com/module/reachability/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
