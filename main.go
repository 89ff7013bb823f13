// Command stripesched runs the caching memory scheduler from the command
// line.
package main

import "github.com/sarchlab/stripesched/cmd/stripesched"

func main() {
	cmd.Execute()
}
