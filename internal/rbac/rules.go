package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:list",
		"course:view",
		"content:view",
		"content:complete",
		"quiz:view",
		"attempt:create",
		"attempt:view-own",
		"enrollment:self",
		"progress:view-own",
		"progress:reset-own",
		"progress:complete-own",
	},
	"instructor": {
		"course:*",
		"module:*",
		"content:*",
		"quiz:*",
		"attempt:view-all",
		"enrollment:manage",
		"progress:view-all",
		"users:bulk_upsert",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
