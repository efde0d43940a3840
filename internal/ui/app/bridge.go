// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// bridgeBuffer bounds how many messages may wait for the event loop.
const bridgeBuffer = 64

// NavigateMsg replaces the screen stack with the screen at Path.
type NavigateMsg struct {
	Path string
}

// NoticeMsg shows a notice toast.
type NoticeMsg struct {
	Text string
}

// bridgeMsg wraps a message delivered through the bridge.
type bridgeMsg struct {
	msg tea.Msg
}

// Bridge carries messages from background goroutines into the model.
// It implements auth.Navigator and auth.Notifier.
type Bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewBridge creates a bridge.
func NewBridge() *Bridge {
	return &Bridge{
		ch:   make(chan tea.Msg, bridgeBuffer),
		done: make(chan struct{}),
	}
}

// Redirect implements auth.Navigator.
func (b *Bridge) Redirect(path string) {
	b.Post(NavigateMsg{Path: path})
}

// Notify implements auth.Notifier.
func (b *Bridge) Notify(message string) {
	b.Post(NoticeMsg{Text: message})
}

// Post queues msg for the model. It blocks while the queue is full and
// drops msg once the bridge is closed.
func (b *Bridge) Post(msg tea.Msg) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// Listen returns a command that waits for the next queued message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return bridgeMsg{msg: msg}
		case <-b.done:
			return nil
		}
	}
}

// Close stops delivery. Pending and later messages are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}
