package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When fetching the global logger", func() {
			l := Get()

			Convey("Then it should log without panicking", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug line", String("key", "value"))
					l.Info(ctx, "info line", Int("count", 3), Int64("big", 9))
					l.Warn(ctx, "warn line", Any("payload", map[string]int{"a": 1}))
					l.Error(ctx, "error line", Error(errors.New("boom")))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			l := Named("sampler")

			Convey("Then it should also log safely", func() {
				So(func() {
					l.Info(context.Background(), "named line")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting valid levels", func() {
			for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO  "} {
				So(SetLevelString(level), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		Convey("When setting a level directly", func() {
			So(func() { SetLevel(slog.LevelWarn) }, ShouldNotPanic)
		})
	})
}
