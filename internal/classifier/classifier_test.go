package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   types.Status
		wantOK bool
	}{
		{"confirmation", "Thank you for applying to Acme!", types.StatusApplied, true},
		{"acceptance", "You're invited to interview with us", types.StatusAccepted, true},
		{"rejection", "We regret to inform you that the position is filled", types.StatusRejected, true},
		{"none", "Your weekly newsletter is here", "", false},
		{"uppercase", "APPLICATION RECEIVED", types.StatusApplied, true},
		{"confirmation wins over rejection", "We received your application. Unfortunately...", types.StatusApplied, true},
		{"acceptance wins over rejection", "Unfortunately we cannot offer relocation", types.StatusAccepted, true},
		{"substring match", "You have been preselected: not selected", types.StatusRejected, true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Status(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompany(t *testing.T) {
	c := New("@myworkday.com")

	tests := []struct {
		sender string
		want   string
	}{
		{"acme123@myworkday.com", "Acme123"},
		{"globex@MyWorkday.com", "Globex"},
		{"hr@example.com", "hr@example.com"},
		{"acme123corp@myworkday.com", "Acme123Corp"},
		{"o'neil@myworkday.com", "O'Neil"},
		{"jane.doe-smith@myworkday.com", "Jane.Doe-Smith"},
		{"İstanbul@myworkday.com", "İstanbul"},
		{"ACME@myworkday.com", "Acme"},
		{strings.Repeat("\xff", 8) + "@myworkday.com", strings.Repeat("\xff", 8)},
		{"\xffacme@MYWORKDAY.COM", "\xffAcme"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Company(tt.sender), tt.sender)
	}
}

func TestCompany_NoMarker(t *testing.T) {
	c := New("")
	assert.Equal(t, "acme@myworkday.com", c.Company("acme@myworkday.com"))
}

func TestHTMLToText(t *testing.T) {
	doc := `<html><head><style>.offer { color: red }</style><script>var invite = 1;</script></head>
<body>
  <p>  Hello   </p>
  <div>We <b>received</b> your application &amp; will be in touch.</div>
  <br/>
</body></html>`

	assert.Equal(t, "Hello\nWe\nreceived\nyour application & will be in touch.", HTMLToText(doc))
}

func TestHTMLToText_Malformed(t *testing.T) {
	assert.Equal(t, "unfortunately", HTMLToText("<div><p>unfortunately"))
}

func TestExtractText(t *testing.T) {
	t.Run("prefers html", func(t *testing.T) {
		email := types.Email{BodyText: "plain offer", BodyHTML: "<p>html rejected</p>"}
		assert.Equal(t, "html rejected", ExtractText(email))
	})

	t.Run("falls back to plain text", func(t *testing.T) {
		email := types.Email{BodyText: "plain offer", BodyHTML: "  \n"}
		assert.Equal(t, "plain offer", ExtractText(email))
	})
}

func TestClassify(t *testing.T) {
	c := New("@myworkday.com")
	date := time.Date(2025, 9, 14, 18, 30, 0, 0, time.FixedZone("PDT", -7*3600))

	got := c.Classify(types.Email{
		From:     "initech@myworkday.com",
		Date:     date,
		BodyHTML: "<p>Congratulations!</p>",
	})
	assert.Equal(t, types.ClassifiedEmail{Company: "Initech", Status: types.StatusAccepted, Date: "2025-09-14"}, got)

	got = c.Classify(types.Email{From: "hr@example.com", Date: date, BodyText: "hello"})
	assert.Equal(t, types.ClassifiedEmail{Company: "hr@example.com", Date: "2025-09-14"}, got)
}
