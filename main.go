package main

import "github.com/preferredrecruit/intake-gateway/cmd"

func main() {
	cmd.Execute()
}
