package main

import "github.com/ValentinKolb/poolfs/cmd"

func main() {
	cmd.Execute()
}
