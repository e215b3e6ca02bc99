package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/scorecast/internal/app"
	"github.com/okian/scorecast/internal/config"
	"github.com/okian/scorecast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const lasso = `{"format":"scorecast/v1","type":"linear",
"feature_names":["batting_team","bowling_team","city","current_score","balls_left","wickets_left","crr","last_five","batsman_left"],
"categories":{"batting_team":["India"],"bowling_team":["Australia"],"city":["Mumbai"]},
"intercept":20,"coefficients":[0,0,0,1,0.5,0,0,0,0]}`

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a models directory and environment configuration", t, func() {
		dir := t.TempDir()
		convey.So(os.WriteFile(filepath.Join(dir, "test20lasso.json"), []byte(lasso), 0o600), convey.ShouldBeNil)

		_ = os.Setenv("SCORECAST_MODELS_DIR", dir)
		_ = os.Setenv("SCORECAST_PREDICT_TIMEOUT_MS", "500")
		defer func() {
			_ = os.Unsetenv("SCORECAST_MODELS_DIR")
			_ = os.Unsetenv("SCORECAST_PREDICT_TIMEOUT_MS")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.ModelsDir, convey.ShouldEqual, dir)

		svc := app.New(
			app.WithModelsDir(cfg.ModelsDir),
			app.WithLoadConcurrency(cfg.LoadConcurrency),
			app.WithPredictTimeout(cfg.PredictTimeout()),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(buildHandler(ctx, cfg, svc))
		defer srv.Close()

		convey.Convey("When posting a match state", func() {
			body := `{"batting_team":"India","bowling_team":"Australia","city":"Mumbai","current_score":120,"overs":15,"wickets":3,"batsmen_left":7,"last_five":45}`
			resp, err := http.Post(srv.URL+"/predict", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the loaded model should answer", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When fetching the docs, page and health routes", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/", "/healthz", "/models", "/metrics"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestSetupLogging(t *testing.T) {
	convey.Convey("Given logging configuration", t, func() {
		defer func() { _ = logger.Init() }()

		convey.Convey("When the format is json and a file is set", func() {
			cfg := config.New()
			cfg.LogFormat = "json"
			cfg.LogFile = filepath.Join(t.TempDir(), "scorecast.log")
			convey.So(setupLogging(cfg), convey.ShouldBeNil)
			logger.Get().Info(context.Background(), "hello")
			convey.So(logger.Close(), convey.ShouldBeNil)

			data, err := os.ReadFile(cfg.LogFile)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldContainSubstring, `"msg":"hello"`)
		})

		convey.Convey("When the level is invalid", func() {
			cfg := config.New()
			cfg.LogLevel = "chatty"
			convey.So(setupLogging(cfg), convey.ShouldBeNil)
		})

		convey.Convey("When the format is unknown", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"
			convey.So(setupLogging(cfg), convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then it should return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
