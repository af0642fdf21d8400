package config_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/okian/brandboard/internal/config"
	"github.com/okian/brandboard/internal/validation"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Store.Driver, convey.ShouldEqual, "memory")
			convey.So(cfg.Store.Tables.Likes, convey.ShouldEqual, "likes")
			convey.So(cfg.Selection.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.Selection.IdleTTL, convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.Timeline.Location, convey.ShouldEqual, "UTC")
			convey.So(cfg.Timeline.DefaultGranularity, convey.ShouldEqual, "weekly")
			convey.So(cfg.Session.CookieName, convey.ShouldEqual, "sb-access-token")
		})

		convey.Convey("Then the default taxonomy is the five onboarding traits", func() {
			convey.So(len(cfg.Attributes), convey.ShouldEqual, 5)
			convey.So(cfg.Attributes[0], convey.ShouldResemble, config.AttributeConfig{Key: "1", Label: "Nightlife Enthusiast"})
			convey.So(cfg.Attributes[4], convey.ShouldResemble, config.AttributeConfig{Key: "10", Label: "Social"})
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(validation.Struct(cfg), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validation(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When a non-memory driver has no dsn", func() {
			cfg.Store.Driver = "postgres"

			convey.Convey("Then validation fails", func() {
				convey.So(validation.Struct(cfg), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a table name is not an identifier", func() {
			cfg.Store.Tables.Places = "places; drop"

			convey.Convey("Then validation fails", func() {
				err := validation.Struct(cfg)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "places must be a plain identifier")
			})
		})

		convey.Convey("When sessions are enabled without a secret", func() {
			cfg.Session.Enabled = true

			convey.Convey("Then validation fails", func() {
				convey.So(validation.Struct(cfg), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the idle TTL is below a second", func() {
			cfg.Selection.IdleTTL = time.Nanosecond

			convey.Convey("Then validation fails", func() {
				err := validation.Struct(cfg)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "idle_ttl must be at least 1s")
			})
		})

		convey.Convey("When the taxonomy is empty", func() {
			cfg.Attributes = nil

			convey.Convey("Then validation fails", func() {
				convey.So(validation.Struct(cfg), convey.ShouldNotBeNil)
			})
		})
	})
}
