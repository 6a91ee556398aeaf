// Package preferences edits the user settings stored in the snapshot.
package preferences

import (
	"fmt"
	"strings"
	"time"

	"tempo/internal/core/model"
)

// Form holds the editable text of every settings field.
type Form struct {
	Theme      string
	Sound      string
	TimeFormat string
	TimeOffset string
	Presets    string
	Tags       string
}

// FormFromSettings renders settings into form text.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		Theme:      settings.Theme,
		Sound:      settings.Sound,
		TimeFormat: fmt.Sprint(settings.TimeFormat),
		TimeOffset: settings.TimeOffset.String(),
		Presets:    model.FormatPresets(settings.TimerPresets),
		Tags:       strings.Join(settings.DefaultTags, ", "),
	}
}

// Apply parses the form on top of base. Fields that fail to parse abort the
// whole update.
func (form Form) Apply(base model.Settings) (model.Settings, error) {
	settings := base.Clone()
	settings.Theme = strings.TrimSpace(form.Theme)
	settings.Sound = strings.TrimSpace(form.Sound)

	format, err := model.ParseTimeFormat(form.TimeFormat)
	if err != nil {
		return base, err
	}
	settings.TimeFormat = format

	offsetText := strings.TrimSpace(form.TimeOffset)
	if offsetText == "" {
		offsetText = "0s"
	}
	offset, err := time.ParseDuration(offsetText)
	if err != nil {
		return base, fmt.Errorf("time offset %q: %w", form.TimeOffset, model.ErrInvalidDuration)
	}
	settings.TimeOffset = offset

	presets, err := model.ParsePresets(form.Presets)
	if err != nil {
		return base, err
	}
	settings.TimerPresets = presets
	settings.DefaultTags = model.SplitList(form.Tags)
	return settings.Normalize(), nil
}
