package main

import "github.com/funvibe/opcheck/pkg/cli"

func main() {
	cli.Run()
}
