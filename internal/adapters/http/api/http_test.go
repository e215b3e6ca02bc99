package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/okian/scorecast/internal/adapters/http/api"
	service "github.com/okian/scorecast/internal/app"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/internal/registry"
	"github.com/okian/scorecast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const validBody = `{"batting_team":"India","bowling_team":"Australia","city":"Mumbai",
"current_score":120,"overs":15.0,"wickets":3,"batsmen_left":7,"last_five":45}`

type constModel float64

func (c constModel) Predict(context.Context, []features.Record) ([]float64, error) {
	return []float64{float64(c)}, nil
}

type errModel string

func (e errModel) Predict(context.Context, []features.Record) ([]float64, error) {
	return nil, errors.New(string(e))
}

type notAModel struct{}

// failingDeps returns a fixed error from Predict.
type failingDeps struct{ err error }

func (f failingDeps) Predict(context.Context, features.MatchState) (service.Response, error) {
	return service.Response{}, f.err
}
func (failingDeps) Models() []service.ModelInfo { return nil }
func (failingDeps) ModelCount() int             { return 0 }
func (failingDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": false}
}

func newHandler(deps interface {
	api.Dependencies
	api.StatsProvider
}, opts ...api.Option) http.Handler {
	server := api.NewServer(deps, deps, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return server.Handler(mux)
}

func newService(entries ...registry.Entry) *service.Service {
	svc := service.New(service.WithRegistry(registry.FromEntries(entries...)))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type predictBody struct {
	Status      string          `json:"status"`
	Predictions json.RawMessage `json:"predictions"`
	Metadata    struct {
		CRR            float64 `json:"crr"`
		BallsRemaining int     `json:"balls_remaining"`
	} `json:"metadata"`
}

func decodePredict(w *httptest.ResponseRecorder) (predictBody, map[string]any) {
	var body predictBody
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	preds := map[string]any{}
	So(json.Unmarshal(body.Predictions, &preds), ShouldBeNil)
	return body, preds
}

func TestPredict(t *testing.T) {
	Convey("Given a server with no models loaded", t, func() {
		h := newHandler(newService())

		Convey("When posting a valid match state", func() {
			w := do(h, http.MethodPost, "/predict", validBody)

			Convey("Then it should succeed with empty predictions", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body, preds := decodePredict(w)
				So(body.Status, ShouldEqual, "success")
				So(preds, ShouldBeEmpty)
				So(body.Metadata.CRR, ShouldEqual, 8.0)
				So(body.Metadata.BallsRemaining, ShouldEqual, 30)
			})
		})

		Convey("When no overs have been bowled", func() {
			w := do(h, http.MethodPost, "/predict", strings.Replace(validBody, `"overs":15.0`, `"overs":0`, 1))

			Convey("Then the run rate should be zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body, _ := decodePredict(w)
				So(body.Metadata.CRR, ShouldEqual, 0)
				So(body.Metadata.BallsRemaining, ShouldEqual, 120)
			})
		})
	})

	Convey("Given a server with mixed models", t, func() {
		h := newHandler(newService(
			registry.Entry{Name: "Random Forest", Model: constModel(171.25)},
			registry.Entry{Name: "CatBoost", Model: notAModel{}},
			registry.Entry{Name: "XG Boost", Model: errModel("feature_names mismatch")},
			registry.Entry{Name: "LightGBM", Model: constModel(166)},
			registry.Entry{Name: "Lasso", Model: constModel(169.5)},
		))

		Convey("When posting a valid match state", func() {
			w := do(h, http.MethodPost, "/predict", validBody)
			So(w.Code, ShouldEqual, http.StatusOK)
			body, preds := decodePredict(w)

			Convey("Then each model should report in its own slot", func() {
				So(body.Status, ShouldEqual, "success")
				So(preds["Random Forest"], ShouldEqual, 171.25)
				So(preds["CatBoost"], ShouldEqual, "Model object has no predict method")
				So(preds["XG Boost"], ShouldStartWith, "Error: ")
				So(preds["XG Boost"], ShouldContainSubstring, "feature_names mismatch")
				So(preds["Lasso"], ShouldEqual, 169.5)
			})

			Convey("Then the predictions should keep registry order", func() {
				ordered := linkedhashmap.New()
				So(ordered.FromJSON(body.Predictions), ShouldBeNil)
				So(ordered.Keys(), ShouldResemble, []interface{}{"Random Forest", "CatBoost", "XG Boost", "LightGBM", "Lasso"})
			})
		})

		Convey("When listing models", func() {
			w := do(h, http.MethodGet, "/models", "")

			Convey("Then they should be listed in registry order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Count  int `json:"count"`
					Models []struct {
						Name     string `json:"name"`
						Predicts bool   `json:"predicts"`
					} `json:"models"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Count, ShouldEqual, 5)
				So(resp.Models[0].Name, ShouldEqual, "Random Forest")
				So(resp.Models[1].Predicts, ShouldBeFalse)
			})
		})

		Convey("When checking health", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"models_loaded":5`)
		})
	})
}

func TestPredictValidation(t *testing.T) {
	Convey("Given a server with one model", t, func() {
		h := newHandler(newService(registry.Entry{Name: "Lasso", Model: constModel(1)}))

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/predict", `{"batting_team":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
		})

		Convey("When the body is empty", func() {
			w := do(h, http.MethodPost, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a field is missing", func() {
			w := do(h, http.MethodPost, "/predict", strings.Replace(validBody, `"city":"Mumbai",`, "", 1))

			Convey("Then it should be a schema violation naming the field", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, `"field":"city"`)
			})
		})

		Convey("When a field has the wrong type", func() {
			w := do(h, http.MethodPost, "/predict", strings.Replace(validBody, `"overs":15.0`, `"overs":"fifteen"`, 1))
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(w.Body.String(), ShouldContainSubstring, `"field":"overs"`)
		})

		Convey("When an integer field is fractional", func() {
			w := do(h, http.MethodPost, "/predict", strings.Replace(validBody, `"wickets":3`, `"wickets":3.5`, 1))
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When a value is out of range", func() {
			w := do(h, http.MethodPost, "/predict", strings.Replace(validBody, `"overs":15.0`, `"overs":21`, 1))
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(w.Body.String(), ShouldContainSubstring, `"code":"validation_error"`)
		})

		Convey("When the method is not POST", func() {
			w := do(h, http.MethodGet, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPredictFailures(t *testing.T) {
	Convey("Given derivation fails", t, func() {
		h := newHandler(failingDeps{err: service.ErrDerivation})
		w := do(h, http.MethodPost, "/predict", validBody)

		Convey("Then it should return 500 with code and message", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var resp map[string]string
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp["code"], ShouldEqual, "internal_error")
			So(resp["message"], ShouldEqual, "feature derivation failed")
		})
	})

	Convey("Given the service has not started", t, func() {
		h := newHandler(failingDeps{err: service.ErrNotStarted})
		w := do(h, http.MethodPost, "/predict", validBody)
		So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the default middleware stack", t, func() {
		h := newHandler(newService())

		Convey("When a browser sends a pre-flight request", func() {
			req := httptest.NewRequest(http.MethodOptions, "/predict", http.NoBody)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", "POST")
			req.Header.Set("Access-Control-Request-Headers", "content-type")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be allowed", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "POST")
				So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "content-type")
			})
		})

		Convey("When no request id is sent", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(len(w.Header().Get(api.RequestIDHeader)), ShouldEqual, 36)
		})

		Convey("When a request id is sent", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("When the metrics endpoint is scraped", func() {
			do(h, http.MethodGet, "/healthz", "")
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "scorecast_inference_http_requests_total")
		})

		Convey("When stats are requested", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})
	})

	Convey("Given a restricted origin list", t, func() {
		h := newHandler(newService(), api.WithCORSOrigins([]string{"https://scores.example"}))

		Convey("Then only listed origins should be echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set("Origin", "https://scores.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://scores.example")

			req = httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set("Origin", "https://evil.example")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "")
		})
	})

	Convey("Given a handler that panics", t, func() {
		h := api.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}), api.RequestIDMiddleware, api.RecoveryMiddleware)
		w := do(h, http.MethodGet, "/", "")

		Convey("Then recovery should answer 500", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "internal_error")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-annotated errors", t, func() {
		cause := errors.New("unexpected EOF")

		Convey("Then kinds and causes should both match", func() {
			err := api.WrapKind("api.predict", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.predict: bad request: unexpected EOF")
		})

		Convey("Then NewKind and Wrap should format the op", func() {
			So(api.NewKind("api.recover", api.ErrInternal).Error(), ShouldEqual, "api.recover: internal error")
			So(api.Wrap("api.models", cause).Error(), ShouldEqual, "api.models: unexpected EOF")
			So(api.Wrap("api.models", nil), ShouldBeNil)
		})
	})
}
