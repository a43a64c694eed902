// Package chatapp is the demo terminal chat client built on top of a
// single obscuraproto session with the relay gateway. It mirrors the
// teacher's internal/service/app package: a tview.Application driving
// a text view and an input field, with a background goroutine pumping
// inbound messages onto the same event loop via QueueUpdateDraw.
package chatapp

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"obscuraproto/internal/obslog"
	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/transport/ws"
)

// App is one interactive chat session between a local user and one
// named peer, relayed through the gateway's session endpoint.
type App struct {
	app     *tview.Application
	chatbox *tview.TextView
	input   *tview.InputField

	carrier *ws.Carrier

	selfName string
	peerName string
}

// New wires an App around an already handshake-complete carrier.
func New(carrier *ws.Carrier, selfName, peerName string) *App {
	return &App{
		app:      tview.NewApplication(),
		carrier:  carrier,
		selfName: selfName,
		peerName: peerName,
	}
}

// Run starts the inbound pump and blocks rendering the terminal UI
// until the user quits.
func (a *App) Run() error {
	go a.listen()
	return a.renderUI()
}

// Stop closes the underlying carrier, wiping session key material.
func (a *App) Stop() {
	a.carrier.Close()
}

func (a *App) renderUI() error {
	a.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Chat with %s ", a.peerName))

	a.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	a.input.SetBorder(true).SetTitle(" New Message ")

	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := a.input.GetText()
		if text == "" {
			return
		}
		go func(msg string) {
			if err := a.sendMessage(msg); err != nil {
				a.app.Suspend(func() {
					obslog.Error("send message failed", zap.Error(err))
				})
				return
			}
			a.app.QueueUpdateDraw(func() {
				fmt.Fprintf(a.chatbox, "[yellow]You:[-] %s\n", msg)
				a.input.SetText("")
				a.chatbox.ScrollToEnd()
			})
		}(text)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.chatbox, 0, 1, false).
		AddItem(a.input, 3, 0, true)

	return a.app.SetRoot(layout, true).SetFocus(a.input).Run()
}

func (a *App) sendMessage(text string) error {
	p := payload.NewBuilder(payload.OpChatText).
		AddString(a.peerName).
		AddString(text).
		Build()
	return a.carrier.Send(p)
}

func (a *App) listen() {
	for {
		p, err := a.carrier.Recv()
		if err != nil {
			obslog.Debug("chat session closed", zap.Error(err))
			return
		}
		if p.OpCode != payload.OpChatText {
			continue
		}
		a.deliver(p)
	}
}

// deliver renders one inbound chat Payload. The gateway rewrites the
// recipient parameter into the sender's name before relaying, so the
// first parameter here is always who the message is from.
func (a *App) deliver(p payload.Payload) {
	reader := payload.NewReader(p)
	from, err := reader.ReadString()
	if err != nil {
		obslog.Error("chat deliver: missing sender", zap.Error(err))
		return
	}
	text, err := reader.ReadString()
	if err != nil {
		obslog.Error("chat deliver: missing text", zap.Error(err))
		return
	}

	a.app.QueueUpdateDraw(func() {
		fmt.Fprintf(a.chatbox, "[green]%s:[-] %s\n", from, text)
		a.chatbox.ScrollToEnd()
	})
}
