package main

import "github.com/KaramelBytes/edudanger-cli/cmd"

func main() {
	cmd.Execute()
}
