// Package alarmform is the "Add alarm" window of the tray app.
package alarmform

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"tempo/internal/core/model"
)

// Request is a validated alarm to create.
type Request struct {
	Hour   int
	Minute int
	Second int
	Label  string
}

// ParseRequest validates the raw field text.
func ParseRequest(timeText, label string) (Request, error) {
	hour, minute, second, err := model.ParseClock(timeText)
	if err != nil {
		return Request{}, err
	}
	return Request{Hour: hour, Minute: minute, Second: second, Label: strings.TrimSpace(label)}, nil
}

// Window collects an alarm time and label.
type Window struct {
	window   fyne.Window
	timeText *widget.Entry
	label    *widget.Entry
	onSubmit func(Request) error
}

// New builds the window. onSubmit returns an error to keep it open.
func New(app fyne.App, onSubmit func(Request) error) *Window {
	window := app.NewWindow("Add alarm")
	form := &Window{
		window:   window,
		timeText: widget.NewEntry(),
		label:    widget.NewEntry(),
		onSubmit: onSubmit,
	}
	form.timeText.SetPlaceHolder("HH:MM or HH:MM:SS")
	form.label.SetPlaceHolder("optional")
	form.timeText.OnSubmitted = func(string) { form.submit() }

	fields := widget.NewForm(
		widget.NewFormItem("Time", form.timeText),
		widget.NewFormItem("Label", form.label),
	)
	buttons := container.NewHBox(
		widget.NewButton("Add", form.submit),
		layout.NewSpacer(),
		widget.NewButton("Cancel", window.Hide),
	)
	window.SetContent(container.NewBorder(nil, buttons, nil, nil, fields))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(320, 140))
	return form
}

// Show clears the fields and displays the window.
func (form *Window) Show() {
	form.timeText.SetText("")
	form.label.SetText("")
	form.window.Show()
	form.window.RequestFocus()
}

func (form *Window) submit() {
	request, err := ParseRequest(form.timeText.Text, form.label.Text)
	if err != nil {
		dialog.ShowError(fmt.Errorf("invalid alarm time: %w", err), form.window)
		return
	}
	if form.onSubmit != nil {
		if err := form.onSubmit(request); err != nil {
			dialog.ShowError(err, form.window)
			return
		}
	}
	form.window.Hide()
}
