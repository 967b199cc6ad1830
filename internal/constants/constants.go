package constants

// Session / context keys
const (
	ContextKeyUserID     = "user_id"
	ContextKeyRequestID  = "request_id"
	ContextKeyResourceID = "resource_id"
	SessionCookieName    = "board_session"
	HeaderRequestID      = "X-Request-ID"
)

// Authentication
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Field limits
const (
	MaxContainerTitleLength = 50
	MaxTaskTitleLength      = 200
	MaxAttachmentNameLength = 255
	MaxAIGeneratedTasks     = 20
	MaxBulkReorderItems     = 500
)

// Ordering
const (
	// SortIndexStep is the spacing used for appended tasks and renormalized containers.
	SortIndexStep = 1024.0
	// BulkWriteConcurrency bounds the number of in-flight per-item writes of a batch.
	BulkWriteConcurrency = 8
)

// Containers
const DefaultContainerColor = "#6B7280"

// DefaultContainers are seeded once at bootstrap and shared by every user.
var DefaultContainers = []struct {
	Title string
	Color string
}{
	{"Open", "#3B82F6"},
	{"In Progress", "#F59E0B"},
	{"Review", "#8B5CF6"},
	{"Done", "#10B981"},
}

// AssigneePalette is the fixed set of colors assignee badges are drawn from.
var AssigneePalette = []string{
	"#EF4444",
	"#F97316",
	"#EAB308",
	"#22C55E",
	"#14B8A6",
	"#0EA5E9",
	"#6366F1",
	"#A855F7",
	"#EC4899",
	"#64748B",
}

// Display formats
const (
	DueDateLayout  = "Jan 02, 2006"
	NoDueDateLabel = "No due date"
	OverduePrefix  = "Overdue: "
)
