package model

// yt-dlp flags used by client profiles
const (
	ExtractorArgsFlag   = "--extractor-args"
	UserAgentFlag       = "--user-agent"
	CookiesFlag         = "--cookies"
	PlayerClientPrefix  = "youtube:player_client="
	DesktopUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	AndroidUserAgent    = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"
	ProfileNameDefault  = "default"
	ProfileNameAndroid  = "android"
	ProfileNameTV       = "tv_embedded"
	ProfileNameMinimal  = "minimal"
	PlayerClientWeb     = "web"
	PlayerClientAndroid = "android"
	PlayerClientTV      = "tv_embedded"
)

// ClientProfile is one extraction configuration: the client identity yt-dlp
// presents to the remote service. The profile that passes extraction is
// reused for the download of the same job.
type ClientProfile struct {
	Name         string
	PlayerClient string
	UserAgent    string
	UseCookies   bool
}

// Args returns the yt-dlp flags for the profile. cookiesFile is only used
// when the profile allows cookies.
func (p ClientProfile) Args(cookiesFile string) []string {
	var args []string
	if p.PlayerClient != "" {
		args = append(args, ExtractorArgsFlag, PlayerClientPrefix+p.PlayerClient)
	}
	if p.UserAgent != "" {
		args = append(args, UserAgentFlag, p.UserAgent)
	}
	if p.UseCookies && cookiesFile != "" {
		args = append(args, CookiesFlag, cookiesFile)
	}
	return args
}

// DefaultProfiles returns the fallback chain, most capable first and most
// minimal last.
func DefaultProfiles() []ClientProfile {
	return []ClientProfile{
		{Name: ProfileNameDefault, PlayerClient: PlayerClientWeb, UserAgent: DesktopUserAgent, UseCookies: true},
		{Name: ProfileNameAndroid, PlayerClient: PlayerClientAndroid, UserAgent: AndroidUserAgent, UseCookies: true},
		{Name: ProfileNameTV, PlayerClient: PlayerClientTV, UseCookies: true},
		{Name: ProfileNameMinimal},
	}
}
