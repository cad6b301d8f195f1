package constants

// Stage names one step of a pipeline run. Values appear in logs and errors.
type Stage string

const (
	StageValidate  Stage = "validate"  // input checks, before any remote call
	StageExtract   Stage = "extract"   // vision model reads the scan
	StageStructure Stage = "structure" // text model formats fields as JSON
	StageRecover   Stage = "recover"   // JSON located and parsed
	StageBuild     Stage = "build"     // fixed-schema row
	StagePersist   Stage = "persist"   // optional sink write
)

// Defaults for the local inference server.
const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultVisionModel = "llama3.2-vision"
	DefaultTextModel   = "llama3"
	DefaultNumCtx      = 2048
)
