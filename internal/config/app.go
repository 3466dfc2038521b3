package config

import "time"

type App struct {
	Development     bool          `env:"DEVELOPMENT" envDefault:"false"`
	Addr            string        `env:"APP_ADDR" envDefault:":8080"`
	BasePath        string        `env:"APP_BASE_PATH"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"gridsweeper.db"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func NewApp() (*App, error) {
	var app App
	if err := ParseEnv(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Development reports whether DEVELOPMENT is set to a true value. Unparsable
// values count as production.
func Development() bool {
	app, err := NewApp()
	return err == nil && app.Development
}
