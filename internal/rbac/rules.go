package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"result:view-own",
	},
	"teacher": {
		"test:create",
		"test:view",
		"test:view-keys",
		"test:publish",
		"test:archive",
		"attempt:view-all",
		"attempt:grade",
		"result:view-all",
	},
	"admin": {
		"*", // everything
	},
}
