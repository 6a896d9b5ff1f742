package envfile

// Settings carries the deploy-time inputs that become the application's
// runtime environment. Empty fields are omitted from the value set so the
// corresponding template lines stay as shipped.
type Settings struct {
	AppEnv     string
	Domain     string // bare domain name; APP_URL is derived from it
	DBHost     string
	DBDatabase string
	DBUsername string
	DBPassword string
}

// Values maps Settings onto the env keys the template tracks. The domain
// becomes a canonical https URL with a trailing slash.
func (s Settings) Values() map[string]string {
	values := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	put("APP_ENV", s.AppEnv)
	if s.Domain != "" {
		values["APP_URL"] = "https://" + s.Domain + "/"
	}
	put("DB_HOST", s.DBHost)
	put("DB_DATABASE", s.DBDatabase)
	put("DB_USERNAME", s.DBUsername)
	put("DB_PASSWORD", s.DBPassword)
	return values
}
