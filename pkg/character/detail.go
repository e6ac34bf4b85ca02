package character

import (
	"net/url"
	"strings"
)

const unknownValue = "Unknown"

// InfoRow is one labeled line of a detail screen.
type InfoRow struct {
	Icon  string
	Title string
	Value string
}

// DisplayState is the read-only view state of a character detail screen.
type DisplayState struct {
	NavigationTitle string
	Name            string
	StatusText      string
	StatusKind      Status
	ImageURL        *url.URL
	InfoRows        []InfoRow
}

// Project maps a Summary to its detail display state. It performs no I/O and
// renders missing values as "Unknown".
func Project(s Summary) DisplayState {
	title := strings.ToUpper(unknownValue)
	name := "Unknown Character"
	if s.Name != "" {
		title = strings.ToUpper(s.Name)
		name = s.Name
	}

	return DisplayState{
		NavigationTitle: title,
		Name:            name,
		StatusText:      strings.ToUpper(s.Status.String()),
		StatusKind:      s.Status,
		ImageURL:        parseImageURL(s.ImageURL),
		InfoRows: []InfoRow{
			{Icon: "🧬", Title: "Species", Value: orUnknown(s.Species)},
			{Icon: "🔮", Title: "Type", Value: orUnknown(s.Type)},
			{Icon: "⚧", Title: "Gender", Value: s.Gender.String() + " " + s.Gender.Icon()},
			{Icon: "🪐", Title: "Origin", Value: orUnknown(s.OriginName)},
			{Icon: "🌍", Title: "Location", Value: orUnknown(s.LocationName)},
		},
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return unknownValue
	}
	return v
}

func parseImageURL(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}
