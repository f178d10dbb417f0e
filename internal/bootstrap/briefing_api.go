package bootstrap

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	apihttp "briefing_worker/adapter/in/http"
	"briefing_worker/config"
)

// NewAPI builds the HTTP surface: health probes, latest run, manual
// trigger. It shares one dependency graph with the worker when deps is
// non-nil, otherwise it wires its own.
func NewAPI(cfg *config.Config, deps *Dependencies) (*fiber.App, func(), error) {
	cleanup := func() {}
	if deps == nil {
		var err error
		deps, cleanup, err = NewDependencies(cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ServerHeader:          "",
	})

	app.Use(recover.New())

	apihttp.NewHealthHandler(deps.DB, deps.Redis).Register(app)
	apihttp.NewRunHandler(deps.Coordinator, deps.RunRepo).Register(app)

	return app, cleanup, nil
}
