package main

import (
	"video-qa/cmd/vqa/cmd"
)

func main() {
	cmd.Execute()
}
