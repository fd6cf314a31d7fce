package types

// ChangeType classifies what happened to a resource within the report window
type ChangeType string

const (
	ChangeCreated  ChangeType = "Created"
	ChangeModified ChangeType = "Modified"
	ChangeExisting ChangeType = "Existing"
	ChangeDeleted  ChangeType = "Deleted"
	ChangeNone     ChangeType = "N/A" // sentinel only
)

// Placeholder values used when a field cannot be resolved
const (
	UnknownIdentity = "Unknown"
	UnknownDate     = "Unknown"
	NoTags          = "No tags"
)

// InventoryRecord is one row of the daily report. Every field is already
// stringified the way it appears in the rendered artifact.
type InventoryRecord struct {
	Identity       string     `json:"identity"`
	ResourceID     string     `json:"resource_id"`
	ResourceType   string     `json:"resource_type"`
	CurrentState   string     `json:"current_state"`
	Region         string     `json:"region"`
	CreationDate   string     `json:"creation_date"`
	LastModified   string     `json:"last_modified"`
	ChangeType     ChangeType `json:"change_type"`
	Tags           string     `json:"tags"`
	AdditionalInfo string     `json:"additional_info"`
}

// FieldNames is the fixed column order of the report artifact.
var FieldNames = []string{
	"IAM User",
	"Resource ID",
	"Resource Type",
	"Current State",
	"Region",
	"Creation Date",
	"Last Modified",
	"Change Type",
	"Tags",
	"Additional Info",
}

// Fields returns the record values in FieldNames order.
func (r InventoryRecord) Fields() []string {
	return []string{
		r.Identity,
		r.ResourceID,
		r.ResourceType,
		r.CurrentState,
		r.Region,
		r.CreationDate,
		r.LastModified,
		string(r.ChangeType),
		r.Tags,
		r.AdditionalInfo,
	}
}

// SentinelRecord is emitted as the sole row when a run found no resources
// at all, so the report is never empty.
func SentinelRecord() InventoryRecord {
	return InventoryRecord{
		Identity:       "N/A",
		ResourceID:     "No changes detected",
		ResourceType:   "N/A",
		CurrentState:   "N/A",
		Region:         "N/A",
		CreationDate:   "N/A",
		LastModified:   "N/A",
		ChangeType:     ChangeNone,
		Tags:           "N/A",
		AdditionalInfo: "N/A",
	}
}

// IsSentinel reports whether the record is the "no changes" placeholder.
func (r InventoryRecord) IsSentinel() bool {
	return r.ChangeType == ChangeNone
}
