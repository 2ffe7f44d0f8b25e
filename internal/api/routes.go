package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazfugata"

	IssueTokenRoute = "/v1/token/issue"

	// Shopper-facing bridge surface. These are the URLs partner redirects
	// and checkout pages land on, so they live outside /v1.
	RedirectParent     = "/redirect/"
	FetchActionRoute   = RedirectParent + "{paymentId}"
	DecryptActionRoute = RedirectParent + "decrypt"
	NavigateRoute      = RedirectParent + "go/{paymentId}"
	PartnerReturnRoute = RedirectParent + "return"

	EncryptActionRoute = "/v1/redirect/encrypt"

	TaskParent       = "/v1/tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
