package main

import "github.com/oshokin/release-feed/cmd/feed-updater/cmd"

func main() {
	cmd.Execute()
}
