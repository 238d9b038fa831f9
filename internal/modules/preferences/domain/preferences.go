package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/hostmatch"
)

type ListName string

const (
	ListProductive  ListName = "productive"
	ListDistracting ListName = "distracting"
	ListBlocked     ListName = "blocked"
)

var ListNames = []ListName{ListProductive, ListDistracting, ListBlocked}

func ParseListName(raw string) (ListName, error) {
	name := ListName(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ListNames {
		if name == known {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown list %q (productive|distracting|blocked)", apperrors.ErrInvalidInput, raw)
}

// List is a domain list with its own last-writer-wins timestamp.
type List struct {
	Sites     []string  `json:"sites"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l List) Contains(site string) bool {
	site = hostmatch.Normalize(site)
	for _, existing := range l.Sites {
		if existing == site {
			return true
		}
	}
	return false
}

// Add appends site. An already present site leaves the list untouched.
func (l List) Add(site string, at time.Time) (List, bool, error) {
	site = hostmatch.Normalize(site)
	if site == "" {
		return l, false, fmt.Errorf("%w: site is required", apperrors.ErrInvalidInput)
	}
	if strings.ContainsAny(site, " \t/") {
		return l, false, fmt.Errorf("%w: %q is not a domain", apperrors.ErrInvalidInput, site)
	}
	if l.Contains(site) {
		return l, false, nil
	}
	sites := append(append([]string(nil), l.Sites...), site)
	return List{Sites: sites, UpdatedAt: at}, true, nil
}

func (l List) Remove(site string, at time.Time) (List, bool) {
	site = hostmatch.Normalize(site)
	sites := make([]string, 0, len(l.Sites))
	for _, existing := range l.Sites {
		if existing != site {
			sites = append(sites, existing)
		}
	}
	if len(sites) == len(l.Sites) {
		return l, false
	}
	return List{Sites: sites, UpdatedAt: at}, true
}

type Preferences struct {
	Productive  List `json:"productive"`
	Distracting List `json:"distracting"`
	Blocked     List `json:"blocked"`
}

func Defaults() Preferences {
	return Preferences{
		Productive:  List{Sites: []string{"github.com", "stackoverflow.com", "docs.google.com"}},
		Distracting: List{Sites: []string{"facebook.com", "twitter.com", "youtube.com", "reddit.com"}},
		Blocked:     List{Sites: []string{}},
	}
}

func (p Preferences) List(name ListName) List {
	switch name {
	case ListProductive:
		return p.Productive
	case ListDistracting:
		return p.Distracting
	default:
		return p.Blocked
	}
}

func (p *Preferences) SetList(name ListName, list List) {
	if list.Sites == nil {
		list.Sites = []string{}
	}
	switch name {
	case ListProductive:
		p.Productive = list
	case ListDistracting:
		p.Distracting = list
	default:
		p.Blocked = list
	}
}

type Category string

const (
	CategoryProductive  Category = "productive"
	CategoryDistracting Category = "distracting"
	CategoryNeutral     Category = "neutral"
)

// Classify tests the productive list first, so a domain on both lists counts
// as productive.
func Classify(host string, productive, distracting []string) Category {
	for _, site := range productive {
		if hostmatch.Within(host, site) {
			return CategoryProductive
		}
	}
	for _, site := range distracting {
		if hostmatch.Within(host, site) {
			return CategoryDistracting
		}
	}
	return CategoryNeutral
}
