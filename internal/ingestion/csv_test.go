package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/velvet-rope/internal/types"
)

const sample = `id,firstName,lastName,email,company,title,industry,yearsExperience,skills,interests,bio,connectionStrength,dealValue,networkSize,influenceScore
1,Ada,Lovelace,ada@example.com,Engines,Founder,Compute,12,Math;Poetry,Looms,"First programmer, allegedly",hot,5000,300,90
2,Grace,Hopper,grace@example.com,Navy,Admiral,Defense,30 years,COBOL,Compilers,,warm,,,
`

func TestParse_CamelCaseHeaders(t *testing.T) {
	upload, err := Parse(sample, "sample.csv")
	require.NoError(t, err)
	require.Len(t, upload.Attendees, 2)

	ada := upload.Attendees[0]
	assert.Equal(t, "1", ada.ID)
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, 12, ada.YearsExperience)
	assert.Equal(t, "Math;Poetry", ada.Skills)
	assert.Equal(t, "First programmer, allegedly", ada.Bio)
	assert.Equal(t, types.ConnectionHot, ada.ConnectionStrength)
	assert.Equal(t, 5000, ada.DealValue)
	assert.Equal(t, 90, ada.InfluenceScore)

	grace := upload.Attendees[1]
	assert.Equal(t, 30, grace.YearsExperience)
	assert.Zero(t, grace.DealValue)

	assert.Equal(t, 2, upload.Metadata.Rows)
	assert.Equal(t, 2, upload.Metadata.Accepted)
	assert.Equal(t, "sample.csv", upload.Metadata.Source)
	assert.Len(t, upload.Metadata.Hash, 64)
}

func TestParse_HeaderVariants(t *testing.T) {
	content := "\ufeffID, First Name ,last_name,Years-Experience\r\nx1,Linus,Torvalds,33\r\n\r\n"
	upload, err := Parse(content, "")
	require.NoError(t, err)
	require.Len(t, upload.Attendees, 1)
	assert.Equal(t, "x1", upload.Attendees[0].ID)
	assert.Equal(t, "Linus", upload.Attendees[0].FirstName)
	assert.Equal(t, "Torvalds", upload.Attendees[0].LastName)
	assert.Equal(t, 33, upload.Attendees[0].YearsExperience)
	assert.Equal(t, types.ConnectionCold, upload.Attendees[0].ConnectionStrength)
}

func TestParse_MissingIDGetsUUID(t *testing.T) {
	upload, err := Parse("firstName,lastName\nAnon,Ymous\n", "")
	require.NoError(t, err)
	require.Len(t, upload.Attendees, 1)
	_, err = uuid.Parse(upload.Attendees[0].ID)
	assert.NoError(t, err)
}

func TestParse_SkipsInvalidRows(t *testing.T) {
	content := strings.Join([]string{
		"id,firstName,email,connectionStrength,yearsExperience",
		"1,Ok,ok@example.com,warm,3",
		"2,BadEmail,not-an-email,warm,3",
		"3,BadStrength,,lukewarm,3",
		"4,Negative,,cold,-2",
		"1,Duplicate,,cold,1",
	}, "\n")

	upload, err := Parse(content, "")
	require.NoError(t, err)
	require.Len(t, upload.Attendees, 1)
	assert.Equal(t, "Ok", upload.Attendees[0].FirstName)

	skipped := upload.Metadata.Skipped
	require.Len(t, skipped, 4)
	assert.Equal(t, "2", skipped[0].ID)
	assert.Contains(t, skipped[0].Reason, "Email")
	assert.Equal(t, 3, skipped[0].Line)
	assert.Contains(t, skipped[1].Reason, "ConnectionStrength")
	assert.Contains(t, skipped[2].Reason, "YearsExperience")
	assert.Equal(t, "duplicate id", skipped[3].Reason)
	assert.Equal(t, 5, upload.Metadata.Rows)
}

func TestParse_NoValidAttendees(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"header only", "id,firstName\n"},
		{"all invalid", "id,email\n1,nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content, "")
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, ErrNoAttendees, inputErr.Message)
		})
	}
}

func TestIngestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	upload, err := IngestFromFile(path)
	require.NoError(t, err)
	assert.Len(t, upload.Attendees, 2)
	assert.Equal(t, path, upload.Metadata.Source)

	_, err = IngestFromFile(filepath.Join(t.TempDir(), "missing.csv"))
	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a,b\n1,2\n", CleanText("\ufeffa,b\r\n1,2\r\n\r\n"))
	assert.Equal(t, "a\nb\n", CleanText("a\rb"))
}

func TestMetadata_HashStable(t *testing.T) {
	first := NewMetadata("abc", "")
	second := NewMetadata("abc", "other")
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.Hash, NewMetadata("abd", "").Hash)

	data, err := first.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hash"`)
}

func TestAtoi(t *testing.T) {
	assert.Equal(t, 12, atoi("12"))
	assert.Equal(t, 7, atoi("7 years"))
	assert.Equal(t, -3, atoi("-3"))
	assert.Zero(t, atoi(""))
	assert.Zero(t, atoi("n/a"))
}
