package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusApplied, StatusInterviewed, StatusSubmitted} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []Status{"", "Applied", "accepted", "rejected"} {
		assert.False(t, s.Valid(), s)
	}
}

func TestApplicationValidate(t *testing.T) {
	tests := []struct {
		name  string
		app   Application
		field string
	}{
		{"ok", Application{Company: "Acme", Position: "Engineer", Status: StatusApplied}, ""},
		{"missing company", Application{Position: "Engineer", Status: StatusApplied}, "company"},
		{"blank position", Application{Company: "Acme", Position: "   ", Status: StatusApplied}, "position"},
		{"long company", Application{Company: strings.Repeat("a", 101), Position: "Engineer", Status: StatusApplied}, "company"},
		{"bad status", Application{Company: "Acme", Position: "Engineer", Status: "Accepted"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.app.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Equal(t, tt.field, ve.Field)
			}
			assert.True(t, IsValidation(err))
		})
	}
}

func TestApplicationBeforeSaveDefaultsStatus(t *testing.T) {
	app := &Application{Company: "Acme", Position: "Engineer"}
	assert.NoError(t, app.BeforeSave(nil))
	assert.Equal(t, StatusApplied, app.Status)
}

func TestApplicationString(t *testing.T) {
	app := &Application{Company: "Acme", Position: "Engineer", Status: StatusInterviewed}
	assert.Equal(t, "Acme - Engineer (interviewed)", app.String())
}

func TestMasterResumeBeforeSave(t *testing.T) {
	r := &MasterResume{Name: "  General Resume  "}
	assert.NoError(t, r.BeforeSave(nil))
	assert.Equal(t, "General Resume", r.Name)

	assert.True(t, IsValidation((&MasterResume{}).BeforeSave(nil)))
}
