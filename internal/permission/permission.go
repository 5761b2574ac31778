package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Action is a bit-flag set of things a permission allows on a resource.
// Composite values exist for storage and role configuration; token claims
// always carry decomposed single actions.
type Action int64

const (
	ActionNone    Action = 0
	ActionCreate  Action = 1 << 0
	ActionRead    Action = 1 << 1
	ActionUpdate  Action = 1 << 2
	ActionDelete  Action = 1 << 3
	ActionManage  Action = 1 << 4
	ActionExport  Action = 1 << 5
	ActionImport  Action = 1 << 6
	ActionApprove Action = 1 << 7

	ActionReadWrite   = ActionRead | ActionCreate | ActionUpdate
	ActionFullAccess  = ActionCreate | ActionRead | ActionUpdate | ActionDelete | ActionManage
	ActionAdminAccess = ActionFullAccess | ActionExport | ActionImport | ActionApprove
)

// singleActions is ordered by bit value; Decompose and String depend on it.
var singleActions = []struct {
	bit  Action
	name string
}{
	{ActionCreate, "Create"},
	{ActionRead, "Read"},
	{ActionUpdate, "Update"},
	{ActionDelete, "Delete"},
	{ActionManage, "Manage"},
	{ActionExport, "Export"},
	{ActionImport, "Import"},
	{ActionApprove, "Approve"},
}

var actionNames = map[string]Action{
	"Create":      ActionCreate,
	"Read":        ActionRead,
	"Update":      ActionUpdate,
	"Delete":      ActionDelete,
	"Manage":      ActionManage,
	"Export":      ActionExport,
	"Import":      ActionImport,
	"Approve":     ActionApprove,
	"ReadWrite":   ActionReadWrite,
	"FullAccess":  ActionFullAccess,
	"AdminAccess": ActionAdminAccess,
}

func (a Action) Has(flag Action) bool {
	return a&flag == flag
}

// String returns the canonical name for exact single or composite values and
// a pipe-joined list otherwise.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionReadWrite:
		return "ReadWrite"
	case ActionFullAccess:
		return "FullAccess"
	case ActionAdminAccess:
		return "AdminAccess"
	}
	var parts []string
	for _, s := range singleActions {
		if a.Has(s.bit) {
			parts = append(parts, s.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

// Decompose expands a into its constituent single-action flags.
func (a Action) Decompose() []Action {
	var out []Action
	for _, s := range singleActions {
		if a.Has(s.bit) {
			out = append(out, s.bit)
		}
	}
	return out
}

// ParseAction resolves a single or composite action name.
func ParseAction(name string) (Action, bool) {
	a, ok := actionNames[name]
	return a, ok
}

// FullPermission builds the "{Resource}.{Action}" permission string.
func FullPermission(resource string, action Action) string {
	return resource + "." + action.String()
}

// PolicyName derives the claim-check policy name used by the HTTP layer for a
// resource/action pair, e.g. RequireUsersReadPermission.
func PolicyName(resource string, action Action) string {
	return fmt.Sprintf("Require%s%sPermission", resource, action.String())
}

// Resource names as they appear in permission strings.
const (
	ResourceUsers       = "Users"
	ResourceRoles       = "Roles"
	ResourcePermissions = "Permissions"
	ResourceDashboard   = "Dashboard"
	ResourceReports     = "Reports"
	ResourceSettings    = "Settings"
	ResourceSystem      = "System"
	ResourceProfile     = "Profile"
	ResourceAnalytics   = "Analytics"
	ResourceData        = "Data"
)

// Registry is the compile-time table of resources and the actions defined for
// each; it replaces runtime enumeration of permission constants.
var Registry = map[string]Action{
	ResourceUsers:       ActionFullAccess | ActionExport | ActionImport,
	ResourceRoles:       ActionFullAccess,
	ResourcePermissions: ActionRead | ActionManage,
	ResourceDashboard:   ActionRead | ActionManage,
	ResourceReports:     ActionReadWrite | ActionExport | ActionImport | ActionManage | ActionDelete,
	ResourceSettings:    ActionRead | ActionUpdate | ActionManage,
	ResourceSystem:      ActionRead | ActionManage,
	ResourceProfile:     ActionRead | ActionUpdate | ActionDelete,
	ResourceAnalytics:   ActionRead | ActionExport | ActionManage,
	ResourceData:        ActionRead | ActionExport | ActionImport,
}

// Resources returns the registry's resource names sorted.
func Resources() []string {
	out := make([]string, 0, len(Registry))
	for r := range Registry {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// All enumerates every defined single-action permission string, sorted.
func All() []string {
	var out []string
	for _, resource := range Resources() {
		for _, a := range Registry[resource].Decompose() {
			out = append(out, FullPermission(resource, a))
		}
	}
	return out
}

// ByResource lists the single-action permission strings defined for one
// resource; nil when the resource is not registered.
func ByResource(resource string) []string {
	mask, ok := Registry[resource]
	if !ok {
		return nil
	}
	var out []string
	for _, a := range mask.Decompose() {
		out = append(out, FullPermission(resource, a))
	}
	return out
}
