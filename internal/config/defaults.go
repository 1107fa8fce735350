package config

const (
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultLockFile            = "~/.cache/animutools/encode.lock"
	defaultImageCacheDir       = "~/.cache/animutools/images"
	defaultCacheDBPath         = "~/.cache/animutools/metadata.db"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultTargetBitrateKbps   = 10000
	defaultBufferDuration      = 1.0
	defaultHLSSegmentSeconds   = 4.0
	defaultProgressIdleSeconds = 5
	defaultAniListAPIURL       = "https://graphql.anilist.co"
	defaultAniListBatchSize    = 30
	defaultAniListRateLimit    = 1.0
	defaultAniListTimeout      = 30
	defaultNyaaRSSBaseURL      = "https://nyaa.si/?page=rss&c=1_2&f=0&q="
	defaultNyaaBroadQuery      = "subsplease 480p"
	defaultNyaaThreshold       = 85
	defaultNyaaQueryDelay      = 5
	defaultNyaaTimeout         = 20
	defaultAtlasMaxWidth       = 2048
	defaultAtlasMaxHeight      = 2048
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Paths: Paths{
			LockFile:      defaultLockFile,
			ImageCacheDir: defaultImageCacheDir,
			CacheDBPath:   defaultCacheDBPath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Encode: Encode{
			TargetBitrateKbps:     defaultTargetBitrateKbps,
			BufferDurationSeconds: defaultBufferDuration,
			HLSSegmentSeconds:     defaultHLSSegmentSeconds,
			ProgressIdleSeconds:   defaultProgressIdleSeconds,
		},
		AniList: AniList{
			APIURL:            defaultAniListAPIURL,
			BatchSize:         defaultAniListBatchSize,
			RateLimitSeconds:  defaultAniListRateLimit,
			RequestTimeoutSec: defaultAniListTimeout,
		},
		Nyaa: Nyaa{
			RSSBaseURL:           defaultNyaaRSSBaseURL,
			BroadQuery:           defaultNyaaBroadQuery,
			SimilarityThreshold:  defaultNyaaThreshold,
			QueryDelaySeconds:    defaultNyaaQueryDelay,
			RequestTimeoutSec:    defaultNyaaTimeout,
			ResolutionPreference: []string{"480p", "720p", "1080p"},
		},
		Atlas: Atlas{
			MaxWidth:  defaultAtlasMaxWidth,
			MaxHeight: defaultAtlasMaxHeight,
		},
	}
}
