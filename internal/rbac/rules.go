package rbac

const (
	RoleLearner  = "learner"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Permissions checked by the admin routes.
const (
	PermQuestionAuthor = "question:author"
	PermQuestionList   = "question:list"
	PermSubmissionView = "submission:view"
	PermArchiveRead    = "archive:read"
)

// Default is the policy the router enforces. Learner grants are informational:
// the /api/question surface is public.
var Default = Policy{
	RoleLearner: {
		"question:view",
		"question:move",
		"question:answer",
	},
	RoleOperator: {
		"question:*",
		PermSubmissionView,
		PermArchiveRead,
	},
	RoleAdmin: {"*"},
}
