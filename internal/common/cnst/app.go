package cnst

const (
	AppName     = "casamento"
	CommandName = "apiserver"
)

const (
	ApiServerYaml = "apiserver.yaml"
)

// TraceService names the tracer of service operations
const TraceService = "casamento/service"
