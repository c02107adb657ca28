package main

import "github.com/oshokin/release-feed/cmd/feed-publisher/cmd"

func main() {
	cmd.Execute()
}
