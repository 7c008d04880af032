package cases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() Input {
	return Input{
		CaseNumber:  "C-001",
		Title:       "Disk full",
		Description: "",
		Status:      "New",
	}
}

func TestValidateAcceptsInBoundsInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"minimal", Input{CaseNumber: "1", Title: "T", Status: "Closed"}},
		{"max lengths", Input{
			CaseNumber:  strings.Repeat("x", MaxCaseNumberLen),
			Title:       strings.Repeat("t", MaxTitleLen),
			Description: strings.Repeat("d", MaxDescriptionLen),
			Status:      "In-progress",
		}},
		{"multibyte counts characters", Input{
			CaseNumber: strings.Repeat("é", MaxCaseNumberLen),
			Title:      "Ünïcödé",
			Status:     "Acknowledged",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errs := Validate(tt.in)
			require.Nil(t, errs)
			assert.Equal(t, tt.in.CaseNumber, out.CaseNumber)
			assert.Equal(t, tt.in.Title, out.Title)
			assert.Equal(t, Status(tt.in.Status), out.Status)
			if tt.in.Description == "" {
				assert.Nil(t, out.Description)
			} else {
				require.NotNil(t, out.Description)
				assert.Equal(t, tt.in.Description, *out.Description)
			}
		})
	}
}

func TestValidateEveryStatus(t *testing.T) {
	for _, s := range Statuses {
		in := validInput()
		in.Status = string(s)
		out, errs := Validate(in)
		require.Nil(t, errs, "status %s", s)
		assert.Equal(t, s, out.Status)
	}
}

func TestValidateTrimsValues(t *testing.T) {
	out, errs := Validate(Input{
		CaseNumber:  "  C-9  ",
		Title:       "\tPrinter on fire\n",
		Description: "  smoke  ",
		Status:      " Resolved ",
	})
	require.Nil(t, errs)
	assert.Equal(t, "C-9", out.CaseNumber)
	assert.Equal(t, "Printer on fire", out.Title)
	require.NotNil(t, out.Description)
	assert.Equal(t, "smoke", *out.Description)
	assert.Equal(t, StatusResolved, out.Status)
}

func TestValidateReportsOnlyViolatedFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		fields []string
	}{
		{"empty case number", func(in *Input) { in.CaseNumber = "" }, []string{FieldCaseNumber}},
		{"blank case number", func(in *Input) { in.CaseNumber = "   " }, []string{FieldCaseNumber}},
		{"long case number", func(in *Input) { in.CaseNumber = strings.Repeat("x", MaxCaseNumberLen+1) }, []string{FieldCaseNumber}},
		{"empty title", func(in *Input) { in.Title = "" }, []string{FieldTitle}},
		{"long title", func(in *Input) { in.Title = strings.Repeat("t", MaxTitleLen+1) }, []string{FieldTitle}},
		{"long description", func(in *Input) { in.Description = strings.Repeat("d", MaxDescriptionLen+1) }, []string{FieldDescription}},
		{"unknown status", func(in *Input) { in.Status = "Unknown" }, []string{FieldStatus}},
		{"empty status", func(in *Input) { in.Status = "" }, []string{FieldStatus}},
		{"status is case sensitive", func(in *Input) { in.Status = "new" }, []string{FieldStatus}},
		{"everything wrong", func(in *Input) {
			in.CaseNumber = ""
			in.Title = ""
			in.Description = strings.Repeat("d", MaxDescriptionLen+1)
			in.Status = "Bogus"
		}, []string{FieldCaseNumber, FieldTitle, FieldDescription, FieldStatus}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			out, errs := Validate(in)
			require.NotNil(t, errs)
			assert.Equal(t, Fields{}, out)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, errs.Has(f), "expected error for %s", f)
				for _, msg := range errs[f] {
					assert.NotEmpty(t, msg)
				}
			}
		})
	}
}

func TestStatusMessageListsAllowedValues(t *testing.T) {
	in := validInput()
	in.Status = "Unknown"
	_, errs := Validate(in)
	require.True(t, errs.Has(FieldStatus))
	for _, s := range Statuses {
		assert.Contains(t, errs[FieldStatus][0], string(s))
	}
}

func TestFieldErrorsError(t *testing.T) {
	fe := FieldErrors{}
	fe.Add(FieldTitle, "Title is required.")
	fe.Add(FieldCaseNumber, "Case number is required.")
	assert.Equal(t, "caseNumber: Case number is required.; title: Title is required.", fe.Error())
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, []string{"New", "Acknowledged", "In-progress", "Resolved", "Closed"}, StatusNames())
	assert.Equal(t, 2, StatusIndex(StatusInProgress))
	assert.Equal(t, -1, StatusIndex("Unknown"))
	assert.False(t, Status("").Valid())
}

func TestCaseInputRoundTrip(t *testing.T) {
	d := "details"
	c := Case{ID: 7, CaseNumber: "C-7", Title: "Title", Description: &d, Status: StatusClosed}
	out, errs := Validate(c.Input())
	require.Nil(t, errs)
	assert.Equal(t, c.CaseNumber, out.CaseNumber)
	assert.Equal(t, "details", *out.Description)

	c.Description = nil
	assert.Equal(t, "", c.Input().Description)
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Case number", FieldLabel(FieldCaseNumber))
	assert.Equal(t, "Status", FieldLabel(FieldStatus))
	assert.Equal(t, "other", FieldLabel("other"))
}
