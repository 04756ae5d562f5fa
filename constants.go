package holoware

import "github.com/holoware-dev/holoware-go/internal"

// Role names, re-exported from internal so callers never need to import
// the internal package themselves.
const (
	RoleSystem    = internal.RoleSystem
	RoleUser      = internal.RoleUser
	RoleAssistant = internal.RoleAssistant
)

// MetaFieldExecution is the frontmatter key ExecutionConfigFromMetadata
// looks for: "execution:" nested under a template's YAML header.
const MetaFieldExecution = "execution"
