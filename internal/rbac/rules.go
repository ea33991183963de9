package rbac

const (
	PermCourseView       = "course:view"
	PermProgressView     = "progress:view"
	PermSubmissionCreate = "submission:create"
)

// Default policy. Guests may browse courses and see the first video only.
var RolePermissions = map[string][]string{
	"guest": {
		PermCourseView,
		PermProgressView,
	},
	"student": {
		PermCourseView,
		PermProgressView,
		PermSubmissionCreate,
	},
	"teacher": {
		"course:*",
		PermProgressView,
	},
	"admin": {
		"*", // everything
	},
}
