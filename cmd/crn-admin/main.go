package main

import (
	"github.com/turtacn/crn/cmd/cli"
)

func main() {
	cli.Execute()
}
