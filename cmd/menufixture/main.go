package main

import "github.com/foodiepass/menufixture/cmd"

func main() {
	cmd.Execute()
}
