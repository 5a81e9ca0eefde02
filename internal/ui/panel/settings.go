package panel

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"meetingtimer/internal/core/model"
)

// settingsForm edits the user-facing part of model.Settings. Paths, presets
// and log level stay as loaded.
type settingsForm struct {
	content      fyne.CanvasObject
	settings     model.Settings
	onSave       func(model.Settings)
	opacity      *widget.Slider
	opacityLabel *widget.Label
	sound        *widget.Check
	speech       *widget.Check
	speechText   *widget.Entry
	saveButton   *widget.Button
}

func newSettingsForm(settings model.Settings, onSave func(model.Settings)) *settingsForm {
	form := &settingsForm{
		settings: settings,
		onSave:   onSave,
	}

	form.opacityLabel = widget.NewLabel("")
	form.opacity = widget.NewSlider(0.7, 0.95)
	form.opacity.Step = 0.01
	form.opacity.OnChanged = func(value float64) {
		form.opacityLabel.SetText(opacityText(value))
	}

	form.sound = widget.NewCheck("Play warning and finish sounds", nil)
	form.speech = widget.NewCheck("Announce when time is up", func(checked bool) {
		if checked {
			form.speechText.Enable()
		} else {
			form.speechText.Disable()
		}
	})
	form.speechText = widget.NewEntry()

	form.saveButton = widget.NewButton("Save", form.handleSave)

	form.content = container.NewBorder(nil, container.NewHBox(layout.NewSpacer(), form.saveButton), nil, nil,
		container.NewVBox(
			widget.NewLabelWithStyle("Overlay", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			container.NewBorder(nil, nil, widget.NewLabel("Opacity"), form.opacityLabel, form.opacity),
			widget.NewLabelWithStyle("Alerts", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			form.sound,
			form.speech,
			form.speechText,
		))

	form.update(settings)
	return form
}

func (form *settingsForm) update(settings model.Settings) {
	form.settings = settings
	form.opacity.SetValue(settings.OverlayOpacity)
	form.opacityLabel.SetText(opacityText(settings.OverlayOpacity))
	form.sound.SetChecked(settings.SoundEnabled)
	form.speechText.SetText(settings.SpeechText)
	form.speech.SetChecked(settings.SpeechEnabled)
	if settings.SpeechEnabled {
		form.speechText.Enable()
	} else {
		form.speechText.Disable()
	}
}

func (form *settingsForm) handleSave() {
	settings := form.settings
	settings.OverlayOpacity = form.opacity.Value
	settings.SoundEnabled = form.sound.Checked
	settings.SpeechEnabled = form.speech.Checked
	if text := form.speechText.Text; text != "" {
		settings.SpeechText = text
	}

	form.settings = settings
	if form.onSave != nil {
		form.onSave(settings)
	}
}

func opacityText(value float64) string {
	return fmt.Sprintf("%d%%", int(value*100+0.5))
}
