package server

const (
	ContentTypeApplicationXml = "application/xml"
	ContentTypeJson           = "application/json"
	ContentTypeProblemJson    = "application/problem+json"
	ContentTypeXml            = "text/xml"

	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	PathDiagrams         = "/diagrams"
	PathDiagramsConvert  = "/diagrams/convert"
	PathDiagramsId       = "/diagrams/{id}"
	PathDiagramsValidate = "/diagrams/validate"

	PathMetrics   = "/metrics"
	PathReadiness = "/readiness"

	QueryDirection = "direction"
	QueryLimit     = "limit"
	QueryMode      = "mode"
	QueryName      = "name"
	QueryOffset    = "offset"
	QueryTheme     = "theme"
)
