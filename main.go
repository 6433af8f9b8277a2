package main

import "VinylShop/cmd"

func main() {
	cmd.Execute()
}
