package config

const (
	defaultConfigPath             = "~/.config/audiodesc/config.toml"
	defaultStateDir               = "~/.local/share/audiodesc"
	defaultLogDir                 = "~/.local/share/audiodesc/logs"
	defaultBind                   = "127.0.0.1:7490"
	defaultAnalyzePerMinute       = 30
	defaultPlatformBaseURL        = "https://api.steamship.com/api/v1/"
	defaultPlatformTimeoutSeconds = 30
	defaultImporterHandle         = "youtube-file-importer"
	defaultTranscriberHandle      = "deepgram-s2t-blockifier-2"
	defaultGeneratorHandle        = "prompt-generation-default"
	defaultGeneratorInstance      = "my-new-instance"
	defaultGeneratorModel         = "text-davinci-003"
	defaultGeneratorTemperature   = 0.7
	defaultGeneratorMaxWords      = 250
	defaultImportTimeoutSeconds   = 5 * 60
	defaultGenerateTimeoutSeconds = 5 * 60
	defaultPollIntervalSeconds    = 2
	defaultMaxPollSeconds         = 10
	defaultPromptTemplate         = "Generate a Linkedin Post describing my latest video. This is the Summary of the Video: %s"
	defaultGeneratorBackend       = BackendPlugin
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMTitle               = "audiodesc"
	defaultLLMTimeoutSeconds      = 60
	defaultGeminiModel            = "gemini-2.5-flash"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Generator backends.
const (
	BackendPlugin     = "plugin"
	BackendOpenRouter = "openrouter"
	BackendGemini     = "gemini"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Server: Server{
			Bind:                     defaultBind,
			AnalyzeRequestsPerMinute: defaultAnalyzePerMinute,
		},
		Platform: Platform{
			BaseURL:        defaultPlatformBaseURL,
			TimeoutSeconds: defaultPlatformTimeoutSeconds,
		},
		Plugins: Plugins{
			Importer:             defaultImporterHandle,
			Transcriber:          defaultTranscriberHandle,
			Generator:            defaultGeneratorHandle,
			GeneratorInstance:    defaultGeneratorInstance,
			GeneratorModel:       defaultGeneratorModel,
			GeneratorTemperature: defaultGeneratorTemperature,
			GeneratorMaxWords:    defaultGeneratorMaxWords,
		},
		Workflow: Workflow{
			ImportTimeoutSeconds:   defaultImportTimeoutSeconds,
			GenerateTimeoutSeconds: defaultGenerateTimeoutSeconds,
			PollIntervalSeconds:    defaultPollIntervalSeconds,
			MaxPollIntervalSeconds: defaultMaxPollSeconds,
			PromptTemplate:         defaultPromptTemplate,
		},
		Generator: Generator{
			Backend: defaultGeneratorBackend,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
