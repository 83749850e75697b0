// medchat-cli is the terminal client for the medchat server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"medchat/internal/client"
	"medchat/internal/tui/chat"
	"medchat/internal/tui/theme"
)

func main() {
	serverURL := flag.String("server", defaultServerURL(), "base URL of the medchat server")
	flag.Parse()

	backend, err := client.New(*serverURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	model := chat.New(backend, theme.Load())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "medchat-cli: %v\n", err)
		os.Exit(1)
	}
}

func defaultServerURL() string {
	if url := os.Getenv("MEDCHAT_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
