// Package render classifies raw assistant replies into a fixed set of display shapes and
// renders them as HTML fragments or terminal text.
package render

// Decision 是一次回复的展示方式，恰好为下列变体之一。
type Decision interface {
	// Mode names the variant ("auth", "table", "month", "markdown", "text").
	Mode() string
	decision()
}

// AuthPrompt asks the user to sign in before the request can be served.
type AuthPrompt struct {
	URL string
}

type TableKind int

const (
	Repositories TableKind = iota
	Holidays
	Calendars
	Events
)

func (k TableKind) String() string {
	switch k {
	case Repositories:
		return "repositories"
	case Holidays:
		return "holidays"
	case Calendars:
		return "calendars"
	case Events:
		return "events"
	default:
		return "unknown"
	}
}

// Columns returns the header labels for the table kind.
func (k TableKind) Columns() []string {
	switch k {
	case Repositories:
		return []string{"Name", "Visibility", "Language", "Description", "Last push"}
	case Holidays:
		return []string{"Title", "Start", "End", "All day", "Holiday"}
	case Calendars:
		return []string{"Kind", "ID", "Name", "Color", "Reminder", "All-day reminder"}
	case Events:
		return []string{"Title", "Calendar", "Start", "End", "Timezone", "All day", "Color"}
	default:
		return nil
	}
}

// Cell is a single table value. Href, when set, turns the value into a link.
type Cell struct {
	Text string
	Href string
}

type Row []Cell

type Table struct {
	Kind TableKind
	Rows []Row
}

// DayCell is one day of a month grid. Day == 0 marks an empty slot.
type DayCell struct {
	Day      int
	InMonth  bool
	Holidays []string
	Events   []string
}

type MonthGrid struct {
	Year  int
	Month int
	Weeks [][]DayCell
}

// MarkdownTable is a reply whose first pipe-table block was extracted. Before and After
// hold the surrounding text.
type MarkdownTable struct {
	Before string
	Header []string
	Rows   [][]string
	After  string
}

type PlainText struct {
	Text string
}

func (AuthPrompt) Mode() string    { return "auth" }
func (Table) Mode() string         { return "table" }
func (MonthGrid) Mode() string     { return "month" }
func (MarkdownTable) Mode() string { return "markdown" }
func (PlainText) Mode() string     { return "text" }

func (AuthPrompt) decision()    {}
func (Table) decision()         {}
func (MonthGrid) decision()     {}
func (MarkdownTable) decision() {}
func (PlainText) decision()     {}
