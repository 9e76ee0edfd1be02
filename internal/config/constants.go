package config

// Application constants
const (
	AppName = "sharkclean"

	// DefaultWorkbookName is the file name GSAF publishes the incident log under.
	DefaultWorkbookName = "GSAF5.xlsx"
	CredentialsFileName = "credentials.json"
	IncidentLogURL      = "https://www.sharkattackfile.net/incidentlog.htm"

	// CleanedSuffix is appended to the input stem for cleaned outputs.
	CleanedSuffix = "_clean"
	SummarySuffix = "_summary"
)
