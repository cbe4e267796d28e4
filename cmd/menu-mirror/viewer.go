// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/menutui"
)

// runViewer runs the interactive viewer until the user quits, the
// context is cancelled, or the client shuts down.
func runViewer(ctx context.Context, client *menu.Client, tree *menutui.Tree, tuiHandler *menutui.TUILogHandler, logger *slog.Logger) error {
	if summary, ok := client.Root(); ok {
		tree.SetRoot(summary)
	}

	model := menutui.NewModel(tree)
	model.SetRefresh(client.Reset)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)
	tree.SetProgram(program)

	forwardCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go forwardClientEvents(forwardCtx, client, tree, program, logger)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forwardClientEvents applies root changes to the tree, reveals items
// the application asks to show, and stops the program when the client
// shuts down.
func forwardClientEvents(ctx context.Context, client *menu.Client, tree *menutui.Tree, program *tea.Program, logger *slog.Logger) {
	for {
		select {
		case summary := <-client.RootChanged():
			tree.SetRoot(summary)
		case request := <-client.ActivationRequests():
			if !tree.Reveal(request.ID) {
				logger.Debug("activation requested for an item not on screen", "item.id", request.ID)
				continue
			}
			logger.Warn("application asked to show a menu item", "item.id", request.ID)
		case <-client.Done():
			logger.Error("menu client stopped")
			program.Quit()
			return
		case <-ctx.Done():
			return
		}
	}
}
