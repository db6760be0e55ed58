package rbac

const (
	PermQuizTake          = "quiz:take"
	PermResultSend        = "result:send"
	PermLibraryManage     = "library:manage"
	PermNotificationsView = "notifications:view"
	PermSettingsManage    = "settings:manage"
)

// RolePermissions is the default policy. The admin identity logs in as a
// teacher but is granted everything.
var RolePermissions = map[string][]string{
	"student": {
		PermQuizTake,
		PermResultSend,
	},
	"teacher": {
		PermQuizTake,
		PermLibraryManage,
		PermNotificationsView,
	},
	"admin": {
		"*",
	},
}
