package main

import (
	"log"

	"github.com/sahilchouksey/video-agent-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
