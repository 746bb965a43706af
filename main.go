package main

import "github.com/pders01/capstan/cmd"

func main() {
	cmd.Execute()
}
