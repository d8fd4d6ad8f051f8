package main

import "recommendr/cmd/recommendr/command"

func main() {
	command.Execute()
}
