package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/logger"
	"github.com/samvad-hq/mini-postman/internal/presenter"
)

// Sender is the session surface the TUI drives.
type Sender interface {
	Run(ctx context.Context, draft domain.RequestDraft) presenter.View
	Busy() bool
	LoggedIn() bool
	ProxyURL() string
}

// App is the interactive request builder.
type App struct {
	ctx    context.Context
	sender Sender
	log    logger.Logger

	g *gocui.Gui

	draft domain.RequestDraft
	focus string

	// only touched on the gocui main loop
	busy bool
	last *presenter.View
}

// NewApp returns an App seeded with draft.
func NewApp(ctx context.Context, sender Sender, draft domain.RequestDraft, log logger.Logger) *App {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if draft.Method == "" {
		draft.Method = domain.MethodGet
	}
	return &App{ctx: ctx, sender: sender, log: log, draft: draft, focus: viewURL}
}

// singleLineEditor is an editor that doesn't consume Enter.
type singleLineEditor struct{}

func (e singleLineEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	case key == gocui.KeyDelete:
		v.EditDelete(false)
	case key == gocui.KeyArrowLeft:
		v.MoveCursor(-1, 0, false)
	case key == gocui.KeyArrowRight:
		v.MoveCursor(1, 0, false)
	case key == gocui.KeyHome || key == gocui.KeyCtrlA:
		v.SetCursor(0, 0)
	case key == gocui.KeyEnd || key == gocui.KeyCtrlE:
		_, oy := v.Origin()
		line, _ := v.Line(oy)
		v.SetCursor(len(line), 0)
	case key == gocui.KeyEnter:
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer g.Close()
	a.g = g

	g.BgColor = gocui.ColorBlack
	g.FgColor = gocui.ColorWhite
	g.Cursor = true
	g.SetManagerFunc(a.layout)

	if err := a.bindKeys(); err != nil {
		return err
	}

	go func() {
		<-a.ctx.Done()
		g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	midX := maxX / 2
	editorBottom := 6 + (maxY-9)/2

	if v, err := g.SetView(viewHeader, 0, 0, maxX-1, 2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
	}
	a.renderHeader()

	if v, err := g.SetView(viewMethod, 0, 3, 9, 5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Method"
	}
	a.renderMethod()

	if v, err := g.SetView(viewURL, 10, 3, maxX-1, 5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "URL"
		v.Editable = true
		v.Editor = singleLineEditor{}
		fmt.Fprint(v, a.draft.URL)
		v.SetCursor(len(a.draft.URL), 0)
	}

	if v, err := g.SetView(viewHeaders, 0, 6, midX-1, editorBottom); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Headers (JSON)"
		v.Editable = true
		fmt.Fprint(v, a.draft.RawHeaders)
	}

	if v, err := g.SetView(viewBody, midX, 6, maxX-1, editorBottom); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Body (JSON)"
		v.Editable = true
		fmt.Fprint(v, a.draft.RawBody)
	}

	if v, err := g.SetView(viewResponse, 0, editorBottom+1, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Response"
		v.Wrap = true
	}

	if v, err := g.SetView(viewFooter, 0, maxY-2, maxX-1, maxY); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
	}
	a.renderFooter()

	if cur := g.CurrentView(); cur == nil || cur.Name() != a.focus {
		if _, err := g.SetCurrentView(a.focus); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) bindKeys() error {
	g := a.g
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, a.quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlR, gocui.ModNone, a.send); err != nil {
		return err
	}
	if err := g.SetKeybinding("", gocui.KeyTab, gocui.ModNone, a.moveFocus(1)); err != nil {
		return err
	}
	if err := g.SetKeybinding(viewMethod, gocui.KeySpace, gocui.ModNone, a.cycleMethod); err != nil {
		return err
	}
	if err := g.SetKeybinding(viewMethod, gocui.KeyEnter, gocui.ModNone, a.cycleMethod); err != nil {
		return err
	}
	if err := g.SetKeybinding(viewURL, gocui.KeyEnter, gocui.ModNone, a.send); err != nil {
		return err
	}
	if err := g.SetKeybinding(viewResponse, gocui.KeyArrowDown, gocui.ModNone, a.scrollResponse(1)); err != nil {
		return err
	}
	if err := g.SetKeybinding(viewResponse, gocui.KeyArrowUp, gocui.ModNone, a.scrollResponse(-1)); err != nil {
		return err
	}
	return nil
}

func (a *App) quit(*gocui.Gui, *gocui.View) error { return gocui.ErrQuit }

func (a *App) moveFocus(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, _ *gocui.View) error {
		a.focus = nextFocus(a.focus, delta)
		_, err := g.SetCurrentView(a.focus)
		return err
	}
}

func (a *App) cycleMethod(*gocui.Gui, *gocui.View) error {
	a.draft.Method = a.draft.Method.Next()
	a.renderMethod()
	return nil
}

func (a *App) scrollResponse(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(_ *gocui.Gui, v *gocui.View) error {
		if v == nil {
			return nil
		}
		ox, oy := v.Origin()
		if delta > 0 {
			return v.SetOrigin(ox, oy+1)
		}
		if oy > 0 {
			return v.SetOrigin(ox, oy-1)
		}
		return nil
	}
}

// send triggers a dispatch. A trigger while one is in flight is ignored.
func (a *App) send(g *gocui.Gui, _ *gocui.View) error {
	if a.busy || a.sender.Busy() {
		return nil
	}
	draft := a.collectDraft(g)
	a.busy = true
	a.last = nil
	a.renderResponse()
	a.renderFooter()

	go func() {
		view := a.sender.Run(a.ctx, draft)
		g.Update(func(*gocui.Gui) error {
			a.busy = false
			a.last = &view
			a.renderResponse()
			a.renderHeader()
			a.renderFooter()
			return nil
		})
	}()
	return nil
}

func (a *App) collectDraft(g *gocui.Gui) domain.RequestDraft {
	read := func(name string) string {
		v, err := g.View(name)
		if err != nil {
			return ""
		}
		return v.Buffer()
	}
	a.draft.URL = strings.TrimSpace(read(viewURL))
	a.draft.RawHeaders = read(viewHeaders)
	a.draft.RawBody = read(viewBody)
	return a.draft
}

func (a *App) renderHeader() {
	if v, err := a.g.View(viewHeader); err == nil {
		v.Clear()
		writeHeader(v, a.sender.LoggedIn(), a.sender.ProxyURL())
	}
}

func (a *App) renderMethod() {
	if v, err := a.g.View(viewMethod); err == nil {
		v.Clear()
		fmt.Fprint(v, colorizeMethod(a.draft.Method))
	}
}

func (a *App) renderResponse() {
	v, err := a.g.View(viewResponse)
	if err != nil {
		return
	}
	v.Clear()
	_ = v.SetOrigin(0, 0)
	if a.last != nil {
		writeResponse(v, *a.last)
	}
}

func (a *App) renderFooter() {
	if v, err := a.g.View(viewFooter); err == nil {
		v.Clear()
		fmt.Fprint(v, footerText(a.busy, a.last))
	}
}
