package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type ConsoleConfig struct {
	APIBaseURL  string
	PlayerID    string
	CharacterID string
	Timeout     time.Duration
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		PlayerID:   getEnv("PLAYER_ID", uuid.NewString()),
		Timeout:    30 * time.Second,
	}
	flag.StringVar(&cfg.CharacterID, "character", getEnv("CHARACTER_ID", ""), "character id to play")
	flag.StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "player id")
	flag.Parse()

	if cfg.CharacterID == "" {
		fmt.Fprintf(os.Stderr, "A character id is required: -character <id> or CHARACTER_ID\n")
		os.Exit(1)
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(NewConsoleUI(cfg, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())

	go pumpEvents(ctx, p, cfg)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// pumpEvents feeds socket events into the program until ctx ends.
func pumpEvents(ctx context.Context, p *tea.Program, cfg *ConsoleConfig) {
	eventChan := make(chan SocketEvent, 32)
	errChan := make(chan error, 1)
	go func() {
		errChan <- listenToSocket(ctx, cfg.APIBaseURL, cfg.PlayerID, eventChan)
	}()

	for {
		select {
		case ev := <-eventChan:
			p.Send(socketEventMsg{event: ev})
		case err := <-errChan:
			if ctx.Err() == nil {
				p.Send(socketClosedMsg{err: err})
			}
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
