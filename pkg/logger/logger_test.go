package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWith(&bytes.Buffer{}, "xml")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatJSON), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "place loaded", String("place_id", "p1"), Int("likes", 3), Error(errors.New("boom")))

			Convey("Then the fields and caller are encoded", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"msg":"place loaded"`)
				So(out, ShouldContainSubstring, `"place_id":"p1"`)
				So(out, ShouldContainSubstring, `"likes":3`)
				So(out, ShouldContainSubstring, `"error":"boom"`)
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters out debug", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Debug(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When using a named logger with bound fields", func() {
			Named("worker").With(Int("worker_id", 2)).Info(ctx, "started")

			Convey("Then component and bound fields are present", func() {
				So(buf.String(), ShouldContainSubstring, `"component":"worker"`)
				So(buf.String(), ShouldContainSubstring, `"worker_id":2`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
