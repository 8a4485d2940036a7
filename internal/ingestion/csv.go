// Package ingestion parses attendee uploads into validated records.
package ingestion

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/velvet-rope/internal/types"
)

// Upload is the result of parsing one CSV.
type Upload struct {
	Attendees []types.Attendee
	Metadata  *Metadata
}

var validate = validator.New()

// Parse reads CSV content with a header row. Headers are matched without
// regard to case, spaces or underscores, so "firstName", "first_name" and
// "First Name" are the same column. Rows without an id get a generated one;
// rows that fail validation or repeat an id are skipped and reported.
// An upload with no usable rows is an *InputError.
func Parse(content, source string) (*Upload, error) {
	content = CleanText(content)
	meta := NewMetadata(content, source)

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &InputError{Message: ErrNoAttendees}
	}
	if err != nil {
		return nil, &InputError{Message: "failed to read CSV header", Cause: err}
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[normalizeHeader(h)] = i
	}

	var attendees []types.Attendee
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &InputError{Message: "malformed CSV", Cause: err}
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		meta.Rows++

		a := fromRecord(columns, record)
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if seen[a.ID] {
			meta.Skipped = append(meta.Skipped, RowIssue{Line: line, ID: a.ID, Reason: "duplicate id"})
			continue
		}
		if err := validate.Struct(&a); err != nil {
			meta.Skipped = append(meta.Skipped, RowIssue{Line: line, ID: a.ID, Reason: describe(err)})
			continue
		}
		seen[a.ID] = true
		attendees = append(attendees, a)
	}

	meta.Accepted = len(attendees)
	if len(attendees) == 0 {
		return nil, &InputError{Message: ErrNoAttendees}
	}
	return &Upload{Attendees: attendees, Metadata: meta}, nil
}

// ParseReader is Parse for a stream.
func ParseReader(r io.Reader, source string) (*Upload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InputError{Message: "failed to read upload", Cause: err}
	}
	return Parse(string(data), source)
}

func fromRecord(columns map[string]int, record []string) types.Attendee {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	strength := types.ConnectionStrength(strings.ToLower(get("connectionstrength")))
	if strength == "" {
		strength = types.ConnectionCold
	}

	return types.Attendee{
		ID:                 get("id"),
		FirstName:          get("firstname"),
		LastName:           get("lastname"),
		Email:              get("email"),
		Company:            get("company"),
		Title:              get("title"),
		Industry:           get("industry"),
		YearsExperience:    atoi(get("yearsexperience")),
		Skills:             get("skills"),
		Interests:          get("interests"),
		LinkedinURL:        get("linkedinurl"),
		Bio:                get("bio"),
		ConnectionStrength: strength,
		LastInteraction:    get("lastinteraction"),
		DealValue:          atoi(get("dealvalue")),
		EventHistory:       get("eventhistory"),
		PersonalityType:    get("personalitytype"),
		NetworkSize:        atoi(get("networksize")),
		InfluenceScore:     atoi(get("influencescore")),
		Notes:              get("notes"),
	}
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

// atoi reads the leading integer of s, ignoring anything after it. Unparseable values are 0.
func atoi(s string) int {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fe.Field() + " failed " + fe.Tag()
	}
	return strings.Join(parts, "; ")
}
