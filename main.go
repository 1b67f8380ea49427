package main

import "github.com/orgharvest/orgharvest/cmd"

func main() {
	cmd.Execute()
}
