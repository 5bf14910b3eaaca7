//go:build gui

// Package gui is the fyne popup: one status line, Escape to transcribe,
// Ctrl+C to cancel.
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"

	"dictate/session"
)

const (
	popupWidth = 1200
	fontSize   = 26 // 20 pt at 96 dpi
)

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	label   *canvas.Text
}

func NewApp() *App {
	a := &App{fyneApp: app.NewWithID("io.dictate.popup")}
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("Dictation")
	}

	a.label = canvas.NewText(session.StatusStarting, foreground)
	a.label.TextSize = fontSize
	a.label.Alignment = fyne.TextAlignCenter

	border := canvas.NewRectangle(background)
	border.StrokeColor = borderColor
	border.StrokeWidth = 2
	content := container.NewStack(border, container.NewPadded(
		container.New(layout.NewCustomPaddedLayout(28, 28, 32, 32), a.label),
	))
	a.window.SetContent(content)
	a.window.SetPadded(false)
	a.window.Resize(fyne.NewSize(popupWidth, content.MinSize().Height))
	a.window.CenterOnScreen()
	return a
}

// SetStatus implements session.View.
func (a *App) SetStatus(text string) {
	fyne.Do(func() {
		a.label.Text = text
		a.label.Refresh()
	})
}

// Run shows the popup and blocks until Quit. onReady runs once the event
// loop is up.
func (a *App) Run(ctrl *session.Controller, onReady func()) {
	c := a.window.Canvas()
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			ctrl.Stop()
		}
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyC, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		ctrl.Cancel()
	})
	a.fyneApp.Lifecycle().SetOnStarted(func() { go onReady() })
	a.window.SetOnClosed(ctrl.Cancel)
	a.window.ShowAndRun()
}

func (a *App) Quit() {
	fyne.Do(a.fyneApp.Quit)
}
