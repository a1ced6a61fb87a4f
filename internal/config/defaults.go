package config

const (
	defaultLogDir              = "~/.local/share/sightdex/logs"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHashMethod          = "phash"
	defaultHashSize            = 8
	defaultSimilarityThreshold = 0.9
	defaultCatalogLimit        = 2000
	defaultTopK                = 50
	defaultConcurrency         = 16
	defaultRefineMaxSources    = 60
	defaultFetchTimeoutSeconds = 20
	defaultFetchMaxBytes       = 5 * 1024 * 1024
	defaultCacheTTLMinutes     = 10
	defaultAPIBind             = "127.0.0.1:8472"
	defaultMaxUploadBytes      = 8 * 1024 * 1024
	defaultCatalogBaseURL      = "https://pokeapi.co/api/v2"
	defaultSpriteBaseURL       = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"
	defaultMirrorBaseURL       = "https://img.pokemondb.net/sprites"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Hash: Hash{
			Method: defaultHashMethod,
			Size:   defaultHashSize,
		},
		Match: Match{
			SimilarityThreshold: defaultSimilarityThreshold,
			CatalogLimit:        defaultCatalogLimit,
			TopK:                defaultTopK,
			Concurrency:         defaultConcurrency,
			RefineMaxSources:    defaultRefineMaxSources,
			IncludeSpriteMirror: true,
		},
		Fetch: Fetch{
			TimeoutSeconds:    defaultFetchTimeoutSeconds,
			MaxBytes:          defaultFetchMaxBytes,
			CacheTTLMinutes:   defaultCacheTTLMinutes,
			AllowInsecureURLs: false,
		},
		Server: Server{
			Bind:           defaultAPIBind,
			MaxUploadBytes: defaultMaxUploadBytes,
			CORSOrigins:    []string{"*"},
		},
		Catalog: Catalog{
			BaseURL:       defaultCatalogBaseURL,
			SpriteBaseURL: defaultSpriteBaseURL,
			MirrorBaseURL: defaultMirrorBaseURL,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
