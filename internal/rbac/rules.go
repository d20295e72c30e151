package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"participant": {
		"session:persist",
		"session:recover",
		"session:delete",
		"session:activity",
		"assessment:score",
	},
	"admin": {
		"*", // everything
	},
}
