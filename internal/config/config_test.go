package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"listing-stats/internal/config"
)

func TestDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("The documented production bounds are in place", func() {
			So(cfg.AreaMin, ShouldEqual, 16)
			So(cfg.AreaMax, ShouldEqual, 500)
			So(cfg.RentPricePerAreaMin, ShouldEqual, 50)
			So(cfg.RentPricePerAreaMax, ShouldEqual, 1500)
			So(cfg.SalePricePerAreaMin, ShouldEqual, 5000)
			So(cfg.SalePricePerAreaMax, ShouldEqual, 300000)
		})

		Convey("They convert to bounds that validate", func() {
			So(cfg.Bounds().Validate(), ShouldBeNil)
		})
	})
}

func TestLoadLayers(t *testing.T) {
	Convey("Given the layered loader", t, func() {
		Convey("With nothing set it returns the defaults", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.AreaMin, ShouldEqual, 16)
			So(cfg.LogLevel, ShouldEqual, "info")
		})

		Convey("Environment variables override defaults", func() {
			t.Setenv("LISTSTAT_AREA_MIN", "20")
			t.Setenv("LISTSTAT_LOG_LEVEL", "debug")

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.AreaMin, ShouldEqual, 20)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("A YAML file overrides defaults and env overrides the file", func() {
			path := filepath.Join(t.TempDir(), "liststat.yaml")
			So(os.WriteFile(path, []byte("area_min: 25\nrent_price_per_area_max: 2000\n"), 0644), ShouldBeNil)
			t.Setenv("LISTSTAT_CONFIG", path)
			t.Setenv("LISTSTAT_AREA_MIN", "30")

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.AreaMin, ShouldEqual, 30)
			So(cfg.RentPricePerAreaMax, ShouldEqual, 2000)
		})
	})
}

func TestLoadRejectsMalformedBounds(t *testing.T) {
	Convey("Given bounds that cannot form a valid chain", t, func() {
		t.Setenv("LISTSTAT_AREA_MAX", "10")

		Convey("Load fails with the invalid-config sentinel", func() {
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
