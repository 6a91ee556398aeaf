package preferences

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"tempo/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	settings   model.Settings
	onSave     func(model.Settings) error
	theme      *widget.Select
	sound      *widget.Select
	timeFormat *widget.RadioGroup
	timeOffset *widget.Entry
	presets    *widget.Entry
	tags       *widget.Entry
}

// New creates a preferences window. onSave returns an error to keep the
// window open.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings) error) *Window {
	window := app.NewWindow("Tempo Settings")

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		theme:      widget.NewSelect([]string{"dark", "light"}, nil),
		sound:      widget.NewSelect([]string{"beep", "chime", "none"}, nil),
		timeFormat: widget.NewRadioGroup([]string{"12", "24"}, nil),
		timeOffset: widget.NewEntry(),
		presets:    widget.NewEntry(),
		tags:       widget.NewEntry(),
	}
	prefs.timeFormat.Horizontal = true
	prefs.timeOffset.SetPlaceHolder("e.g. 5m or -1h")
	prefs.presets.SetPlaceHolder("comma separated, e.g. 5m,25m,1h")
	prefs.tags.SetPlaceHolder("comma separated")
	prefs.UpdateSettings(settings)

	form := widget.NewForm(
		widget.NewFormItem("Theme", prefs.theme),
		widget.NewFormItem("Sound", prefs.sound),
		widget.NewFormItem("Clock", prefs.timeFormat),
		widget.NewFormItem("Time offset", prefs.timeOffset),
		widget.NewFormItem("Timer presets", prefs.presets),
		widget.NewFormItem("Pomodoro tags", prefs.tags),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(440, 320))

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings.Clone()
	form := FormFromSettings(settings)
	prefs.theme.SetSelected(form.Theme)
	prefs.sound.SetSelected(form.Sound)
	prefs.timeFormat.SetSelected(form.TimeFormat)
	prefs.timeOffset.SetText(form.TimeOffset)
	prefs.presets.SetText(form.Presets)
	prefs.tags.SetText(form.Tags)
}

func (prefs *Window) handleSave() {
	form := Form{
		Theme:      prefs.theme.Selected,
		Sound:      prefs.sound.Selected,
		TimeFormat: prefs.timeFormat.Selected,
		TimeOffset: prefs.timeOffset.Text,
		Presets:    prefs.presets.Text,
		Tags:       prefs.tags.Text,
	}
	settings, err := form.Apply(prefs.settings)
	if err != nil {
		dialog.ShowError(err, prefs.window)
		return
	}
	if prefs.onSave != nil {
		if err := prefs.onSave(settings); err != nil {
			dialog.ShowError(err, prefs.window)
			return
		}
	}
	prefs.settings = settings
	prefs.window.Hide()
}
