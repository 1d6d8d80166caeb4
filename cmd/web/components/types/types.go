package types

// PageData represents data passed to templates
type PageData struct {
	Title   string
	Version string // Application version (for footer display)

	// Connection sidebar
	Presets         []string
	Preset          string // Selected preset, empty for free entry
	Host            string // Free entry fields
	Port            string
	Scheme          string
	Schemes         []string
	Connection      string // Base URL of the selected cluster
	ConnectionError string // Set when the cluster is unreachable; nothing else renders

	// Index selection
	Indices []string
	Index   string
	DocType string

	// Table
	Found       int64 // Total hits reported by the cluster
	Columns     []string
	Rows        []Row
	RowCount    int
	Start       int // 1-based first visible row, 0 when empty
	End         int
	CurrentPage int
	TotalPages  int
	PageSize    int
	PageSizes   []int
	CanPrevious bool
	CanNext     bool

	// Row detail
	ShowDetail  bool
	SelectedRow int // Absolute row number, -1 when none
	Detail      string

	Downloads   []Download
	Stats       []Stat
	Diagnostics []Diagnostic
	Error       string
}

// Row is one rendered table row.
type Row struct {
	Number   int // Absolute row index in the fetched set
	Cells    []string
	Selected bool
}

type Download struct {
	Label    string
	URL      string
	Filename string
}

type Stat struct {
	Label string
	Value string
}

// Diagnostic is a recovered error shown above the table.
type Diagnostic struct {
	Op      string
	Message string
	Trace   string
}
