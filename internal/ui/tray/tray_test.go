package tray

import (
	"testing"

	"fyne.io/fyne/v2"

	"fivephase/internal/core/model"
	"fivephase/internal/ui/control"
)

func findItem(t *testing.T, menu *fyne.Menu, label string) *fyne.MenuItem {
	t.Helper()
	for _, item := range menu.Items {
		if item.Label == label {
			return item
		}
	}
	t.Fatalf("menu has no %q item", label)
	return nil
}

func TestSessionLabels(t *testing.T) {
	manager := New(nil, Callbacks{})
	if manager.pauseItem.Label != "Start session" || !manager.stopItem.Disabled {
		t.Fatalf("initial items = %q disabled=%t", manager.pauseItem.Label, manager.stopItem.Disabled)
	}

	manager.SetStatus("Growth")
	manager.SetSession(true, true)
	if manager.pauseItem.Label != "Resume" || manager.stopItem.Disabled {
		t.Errorf("paused items = %q disabled=%t", manager.pauseItem.Label, manager.stopItem.Disabled)
	}
	if manager.statusItem.Label != "Status: Growth (paused)" {
		t.Errorf("status = %q", manager.statusItem.Label)
	}

	manager.SetSession(true, false)
	if manager.pauseItem.Label != "Pause" {
		t.Errorf("running label = %q", manager.pauseItem.Label)
	}
}

func TestModeItemsDispatchCommands(t *testing.T) {
	var got []control.Command
	manager := New(nil, Callbacks{OnCommand: func(command control.Command) { got = append(got, command) }})

	speed := findItem(t, manager.Menu(), "Speed")
	speed.ChildMenu.Items[3].Action()
	rotation := findItem(t, manager.Menu(), "Rotation")
	rotation.ChildMenu.Items[1].Action()
	manager.pauseItem.Action()

	if len(got) != 3 {
		t.Fatalf("commands = %+v", got)
	}
	if got[0].Kind != control.SetSpeed || got[0].Speed != model.SpeedZen {
		t.Errorf("speed command = %+v", got[0])
	}
	if got[1].Kind != control.SetRotation || got[1].Rotation != model.RotationKinetic {
		t.Errorf("rotation command = %+v", got[1])
	}
	if got[2].Kind != control.TogglePause {
		t.Errorf("pause command = %+v", got[2])
	}
}

func TestSetConfigurationChecksItems(t *testing.T) {
	manager := New(nil, Callbacks{})
	config := model.Configuration{
		Speed:      model.SpeedHarmony,
		Breath:     model.BreathRelaxed,
		Transition: model.TransitionHard,
		Rotation:   model.RotationNone,
	}
	manager.SetConfiguration(config)

	if !manager.speed[2].Checked || manager.speed[0].Checked {
		t.Error("speed check marks not updated")
	}
	if !manager.breath[1].Checked || !manager.rotation[2].Checked {
		t.Error("breath or rotation check marks not updated")
	}
	for i, mode := range model.TransitionModes {
		if manager.transition[i].Checked != (mode == model.TransitionHard) {
			t.Errorf("transition %v checked = %t", mode, manager.transition[i].Checked)
		}
	}
}
