package main

import "clubcam-sync/cmd"

func main() {
	cmd.Run()
}
