package main

import "github.com/theirongolddev/cadence/cmd"

func main() {
	cmd.Execute()
}
