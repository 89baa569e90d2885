package main

import "github.com/LENAX/depman/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
