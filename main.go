package main

import "github.com/ValentinKolb/kvbind/cmd"

func main() {
	cmd.Execute()
}
