package main

import "github.com/ValentinKolb/dotset/cmd"

func main() {
	cmd.Execute()
}
