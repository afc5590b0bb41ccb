package main

import "github.com/masmgr/gitstream/cmd"

func main() {
	cmd.Run()
}
