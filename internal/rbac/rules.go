package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"worksheet:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	"teacher": {
		"worksheet:create",
		"worksheet:view",
		"worksheet:view-full",
		"attempt:view-all",
		"attempt:review",
	},
	"admin": {
		"*", // everything
	},
}
