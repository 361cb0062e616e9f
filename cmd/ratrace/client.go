package main

import (
	"strings"

	"github.com/lox/ratrace/internal/tui"
)

type ClientCmd struct {
	Server string `kong:"default='ws://localhost:8080/ws',help='WebSocket server URL'"`
	Name   string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
}

func (c *ClientCmd) Run() error {
	return tui.Run(tui.Config{
		Server:   strings.TrimSpace(c.Server),
		Username: strings.TrimSpace(c.Name),
	})
}
