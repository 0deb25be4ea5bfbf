package main

import "github.com/SafeMPC/custody-engine/cmd"

func main() {
	cmd.Execute()
}
