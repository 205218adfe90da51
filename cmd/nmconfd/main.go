package main

import "github.com/mejarrett/netmap/cmd/nmconfd/cmd"

func main() {
	cmd.Execute()
}
