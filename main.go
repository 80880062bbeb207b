package main

import "github.com/galindo-legaria/alite/cmd"

func main() {
	cmd.Execute()
}
