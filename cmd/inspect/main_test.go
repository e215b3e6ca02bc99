package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const boosterJSON = `{"type":"tree_ensemble",
"feature_names":["batting_team","bowling_team","city","current_score","balls_left","wickets_left","crr","last_five","batsman_left"],
"categories":{"batting_team":["India"],"bowling_team":["Australia"],"city":["Mumbai"]},
"aggregation":"sum","base_score":100,"learning_rate":1,
"trees":[{"nodes":[{"feature":4,"threshold":60,"left":1,"right":2},{"leaf":true,"value":40},{"leaf":true,"value":10}]}]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	Convey("Given a wrapped CatBoost artifact", t, func() {
		dir := t.TempDir()
		path := writeFile(t, dir, "test20cb.json",
			`{"format":"scorecast/v1","type":"object","class":"utils.models.CatBoostModel","state":{"model":`+boosterJSON+`}}`)

		Convey("When inspecting it", func() {
			var out bytes.Buffer
			err := run([]string{"-compact", path}, &out)

			Convey("Then the wrapper and its booster should be described", func() {
				So(err, ShouldBeNil)
				var r report
				So(json.Unmarshal(out.Bytes(), &r), ShouldBeNil)
				So(r.Error, ShouldBeEmpty)
				So(r.Description.Class, ShouldEqual, "utils.models.CatBoostModel")
				So(r.Description.Predicts, ShouldBeTrue)
				So(r.Description.Inner.Trees, ShouldEqual, 1)
				So(r.Description.Features, ShouldHaveLength, 9)
			})
		})
	})

	Convey("Given one good and one corrupt artifact", t, func() {
		dir := t.TempDir()
		good := writeFile(t, dir, "good.json", `{"format":"scorecast/v1",`+boosterJSON[1:])
		bad := writeFile(t, dir, "bad.json", `{not json`)

		Convey("When inspecting both", func() {
			var out bytes.Buffer
			err := run([]string{"-compact", good, bad}, &out)

			Convey("Then both should be reported and the run should fail", func() {
				So(err, ShouldNotBeNil)
				dec := json.NewDecoder(&out)
				var first, second report
				So(dec.Decode(&first), ShouldBeNil)
				So(dec.Decode(&second), ShouldBeNil)
				So(first.Description.Aggregation, ShouldEqual, "sum")
				So(second.File, ShouldEqual, bad)
				So(second.Error, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given no arguments", t, func() {
		err := run(nil, &bytes.Buffer{})
		So(errors.Is(err, errUsage), ShouldBeTrue)
	})
}
