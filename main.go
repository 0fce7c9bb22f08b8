package main

import "github.com/inkpress/apiserver/cmd"

func main() {
	cmd.Execute()
}
