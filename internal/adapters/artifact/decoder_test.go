package artifact_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/domain/features"
	"github.com/okian/scorecast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const schemaJSON = `"feature_names":["batting_team","bowling_team","city","current_score","balls_left","wickets_left","crr","last_five","batsman_left"],
"categories":{"batting_team":["Australia","India"],"bowling_team":["Australia","India"],"city":["Mumbai"]}`

const treeJSON = `{"format":"scorecast/v1","type":"tree_ensemble",` + schemaJSON + `,
"aggregation":"mean","trees":[{"nodes":[
 {"feature":5,"threshold":100,"left":1,"right":2},
 {"leaf":true,"value":150},
 {"leaf":true,"value":180}]}]}`

const linearJSON = `{"format":"scorecast/v1","type":"linear",` + schemaJSON + `,
"intercept":1.5,"coefficients":[0,0,0,0,0,1,0,0,0,0,0]}`

const encoderJSON = `{"format":"scorecast/v1","type":"encoder",` + schemaJSON + `}`

// box is a minimal registered class that holds one nested artifact.
type box struct{ inner any }

func (b *box) Class() string { return "tests.Box" }
func (b *box) Unwrap() any   { return b.inner }

func boxFactory(d *artifact.Decoder, state json.RawMessage) (any, error) {
	var st struct {
		Inner json.RawMessage `json:"inner"`
	}
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, err
	}
	inner, err := d.DecodeNested(st.Inner)
	if err != nil {
		return nil, err
	}
	return &box{inner: inner}, nil
}

func record() features.Record {
	rec, _ := features.Derive(features.MatchState{
		BattingTeam: "India", BowlingTeam: "Australia", City: "Mumbai",
		CurrentScore: 120, Overs: 15, Wickets: 3, BatsmenLeft: 7, LastFive: 45,
	})
	return rec
}

func TestDecodeKinds(t *testing.T) {
	Convey("Given a decoder", t, func() {
		d := artifact.NewDecoder()
		ctx := context.Background()

		Convey("When decoding a tree ensemble", func() {
			v, err := d.Decode([]byte(treeJSON))

			Convey("Then it should predict", func() {
				So(err, ShouldBeNil)
				p, ok := v.(model.Predictor)
				So(ok, ShouldBeTrue)
				out, err := p.Predict(ctx, []features.Record{record()})
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []float64{180})
			})
		})

		Convey("When decoding a linear model", func() {
			v, err := d.Decode([]byte(linearJSON))

			Convey("Then it should predict", func() {
				So(err, ShouldBeNil)
				out, err := v.(model.Predictor).Predict(ctx, []features.Record{record()})
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []float64{121.5})
			})
		})

		Convey("When decoding a standalone encoder", func() {
			v, err := d.Decode([]byte(encoderJSON))

			Convey("Then it should transform but not predict", func() {
				So(err, ShouldBeNil)
				_, isPredictor := v.(model.Predictor)
				So(isPredictor, ShouldBeFalse)
				_, isTransformer := v.(model.Transformer)
				So(isTransformer, ShouldBeTrue)
			})
		})
	})
}

func TestDecodeFailures(t *testing.T) {
	Convey("Given a decoder", t, func() {
		d := artifact.NewDecoder()

		Convey("When the bytes are not JSON", func() {
			_, err := d.Decode([]byte("\x80\x04\x95pickle"))
			So(errors.Is(err, artifact.ErrCorrupt), ShouldBeTrue)
		})

		Convey("When the format is missing or different", func() {
			_, err := d.Decode([]byte(`{"type":"linear"}`))
			So(errors.Is(err, artifact.ErrUnsupportedFormat), ShouldBeTrue)

			_, err = d.Decode([]byte(`{"format":"scorecast/v0","type":"linear"}`))
			So(errors.Is(err, artifact.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When the type is unknown", func() {
			_, err := d.Decode([]byte(`{"format":"scorecast/v1","type":"svm"}`))
			So(errors.Is(err, artifact.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When an unknown field is present", func() {
			_, err := d.Decode([]byte(strings.Replace(linearJSON, `"intercept"`, `"alpha":0.1,"intercept"`, 1)))
			So(errors.Is(err, artifact.ErrCorrupt), ShouldBeTrue)
		})

		Convey("When the model definition is inconsistent", func() {
			_, err := d.Decode([]byte(strings.Replace(linearJSON, `[0,0,0,0,0,1,0,0,0,0,0]`, `[1]`, 1)))
			So(errors.Is(err, model.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("When an object names an unregistered class", func() {
			_, err := d.Decode([]byte(`{"format":"scorecast/v1","type":"object","class":"utils.models.CatBoostModel","state":{}}`))

			Convey("Then the reference should not resolve", func() {
				So(errors.Is(err, artifact.ErrUnresolvedClass), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "utils.models.CatBoostModel")
			})
		})
	})
}

func TestDecodeObjects(t *testing.T) {
	Convey("Given a decoder with a registered class", t, func() {
		d := artifact.NewDecoder()
		d.RegisterType("tests.Box", boxFactory)
		So(d.Registered("tests.Box"), ShouldBeTrue)
		So(d.Registered("tests.Crate"), ShouldBeFalse)

		Convey("When decoding an envelope around a model", func() {
			doc := `{"format":"scorecast/v1","type":"object","class":"tests.Box","state":{"inner":` + treeJSON + `}}`
			v, err := d.Decode([]byte(doc))

			Convey("Then the factory should rebuild it", func() {
				So(err, ShouldBeNil)
				b, ok := v.(*box)
				So(ok, ShouldBeTrue)
				_, ok = b.inner.(*model.TreeEnsemble)
				So(ok, ShouldBeTrue)
			})

			Convey("Then the description should include the inner object", func() {
				desc := artifact.Describe(v)
				So(desc.Kind, ShouldEqual, artifact.KindObject)
				So(desc.Class, ShouldEqual, "tests.Box")
				So(desc.Predicts, ShouldBeFalse)
				So(desc.Inner, ShouldNotBeNil)
				So(desc.Inner.Kind, ShouldEqual, artifact.KindTreeEnsemble)
				So(desc.Inner.Trees, ShouldEqual, 1)
				So(desc.Features, ShouldResemble, features.Columns)
			})
		})

		Convey("When the envelope nests too deeply", func() {
			doc := treeJSON
			for i := 0; i < 12; i++ {
				doc = `{"type":"object","class":"tests.Box","state":{"inner":` + doc + `}}`
			}
			doc = `{"format":"scorecast/v1",` + strings.TrimPrefix(doc, "{")
			_, err := d.Decode([]byte(doc))
			So(errors.Is(err, artifact.ErrTooDeep), ShouldBeTrue)
		})

		Convey("When the factory rejects the state", func() {
			_, err := d.Decode([]byte(`{"format":"scorecast/v1","type":"object","class":"tests.Box","state":{}}`))
			So(errors.Is(err, artifact.ErrInvalidState), ShouldBeTrue)
		})
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given decoded artifacts", t, func() {
		d := artifact.NewDecoder()

		Convey("Then each kind should describe itself", func() {
			v, err := d.Decode([]byte(linearJSON))
			So(err, ShouldBeNil)
			desc := artifact.Describe(v)
			So(desc.Kind, ShouldEqual, artifact.KindLinear)
			So(desc.Predicts, ShouldBeTrue)
			So(len(desc.Columns), ShouldEqual, 11)

			v, err = d.Decode([]byte(encoderJSON))
			So(err, ShouldBeNil)
			desc = artifact.Describe(v)
			So(desc.Kind, ShouldEqual, artifact.KindEncoder)
			So(desc.Predicts, ShouldBeFalse)
		})

		Convey("Then foreign values should report their Go type", func() {
			So(artifact.Describe(42).Kind, ShouldEqual, "int")
		})
	})
}
