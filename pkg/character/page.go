package character

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingInfo is returned when a listing response has no pagination info.
var ErrMissingInfo = errors.New("response has no info object")

// Page is one server response unit: a slice of the catalog plus pagination
// metadata. Number is the page that was requested.
type Page struct {
	Characters []Summary
	Number     int
	TotalPages int
	TotalCount int
	Next       string
	Prev       string
}

// IsLast reports whether no further page exists after this one.
func (p *Page) IsLast() bool {
	return p.Number >= p.TotalPages
}

// Response is the JSON body of GET character/?page=n.
type Response struct {
	Info    *Info    `json:"info"`
	Results []Record `json:"results"`
}

// Info holds the pagination metadata of a Response.
type Info struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Place is an origin or location reference.
type Place struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Record is a character as encoded by the API.
type Record struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Species  string   `json:"species"`
	Type     string   `json:"type"`
	Gender   Gender   `json:"gender"`
	Origin   Place    `json:"origin"`
	Location Place    `json:"location"`
	Image    string   `json:"image"`
	Episode  []string `json:"episode"`
	URL      string   `json:"url"`
	Created  string   `json:"created"`
}

// Summary converts the record into the listing model. A malformed created
// timestamp is dropped rather than failing the whole page.
func (r Record) Summary() Summary {
	s := Summary{
		ID:           r.ID,
		Name:         strings.TrimSpace(r.Name),
		ImageURL:     strings.TrimSpace(r.Image),
		Status:       r.Status,
		Species:      strings.TrimSpace(r.Species),
		Type:         strings.TrimSpace(r.Type),
		Gender:       r.Gender,
		OriginName:   strings.TrimSpace(r.Origin.Name),
		LocationName: strings.TrimSpace(r.Location.Name),
		URL:          r.URL,
	}
	if len(r.Episode) > 0 {
		s.Episodes = append([]string(nil), r.Episode...)
	}
	if r.Created != "" {
		if created, err := time.Parse(time.RFC3339, r.Created); err == nil {
			s.Created = created
		}
	}
	return s
}

// ToPage converts the response into a Page for the given page number.
func (r *Response) ToPage(number int) (*Page, error) {
	if r.Info == nil {
		return nil, ErrMissingInfo
	}
	if r.Info.Pages < 0 || r.Info.Count < 0 {
		return nil, fmt.Errorf("invalid info: pages=%d count=%d", r.Info.Pages, r.Info.Count)
	}

	page := &Page{
		Characters: make([]Summary, 0, len(r.Results)),
		Number:     number,
		TotalPages: r.Info.Pages,
		TotalCount: r.Info.Count,
	}
	if r.Info.Next != nil {
		page.Next = *r.Info.Next
	}
	if r.Info.Prev != nil {
		page.Prev = *r.Info.Prev
	}
	for _, rec := range r.Results {
		page.Characters = append(page.Characters, rec.Summary())
	}
	return page, nil
}
