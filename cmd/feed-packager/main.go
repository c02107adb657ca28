package main

import "github.com/oshokin/release-feed/cmd/feed-packager/cmd"

func main() {
	cmd.Execute()
}
