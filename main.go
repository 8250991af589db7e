package main

import "arch-community-backend/cmd"

func main() {
	cmd.Run()
}
