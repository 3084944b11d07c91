package main

import "github.com/crander/idlglue/cmd"

func main() {
	cmd.Execute()
}
