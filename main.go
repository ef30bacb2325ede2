package main

import "modelhub-backend/cmd"

func main() {
	cmd.Run()
}
