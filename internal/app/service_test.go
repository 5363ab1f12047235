package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	app "github.com/EBB2675/curator/internal/app"
	"github.com/EBB2675/curator/internal/domain/model"
	"github.com/EBB2675/curator/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type stubFetcher struct {
	records []model.Record
	err     error
}

func (f *stubFetcher) FetchAll(ctx context.Context) ([]model.Record, error) {
	return f.records, f.err
}

type captureWriter struct {
	mu      sync.Mutex
	samples map[int][]model.Record
	err     error
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{samples: make(map[int][]model.Record)}
}

func (w *captureWriter) Write(ctx context.Context, size int, sample []model.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.samples[size] = sample
	return nil
}

func testRecords(n int) []model.Record {
	systems := []string{"bulk", "molecule / cluster", "unknown"}
	records := make([]model.Record, n)
	for i := range records {
		records[i] = model.Record{
			EntryID:    fmt.Sprintf("e%03d", i),
			UploadID:   fmt.Sprintf("u%03d", i/5),
			Mainfile:   fmt.Sprintf("run%03d/orca.out", i),
			MainAuthor: fmt.Sprintf("author-%d", i%11),
			System:     systems[i%len(systems)],
		}
	}
	return records
}

func TestServiceRun(t *testing.T) {
	Convey("Given a configured service", t, func() {
		fetcher := &stubFetcher{records: testRecords(60)}
		writer := newCaptureWriter()

		svc := app.New(
			app.WithFetcher(fetcher),
			app.WithWriter(writer),
			app.WithSeed(123456),
			app.WithTargetSizes([]int{10, 25}),
			app.WithSampleWorkers(2),
		)

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then every target size yields a sample of that size", func() {
				So(err, ShouldBeNil)
				So(len(writer.samples[10]), ShouldEqual, 10)
				So(len(writer.samples[25]), ShouldEqual, 25)
			})

			Convey("Then a second run reproduces the same samples", func() {
				second := newCaptureWriter()
				svc2 := app.New(
					app.WithFetcher(fetcher),
					app.WithWriter(second),
					app.WithSeed(123456),
					app.WithTargetSizes([]int{10, 25}),
					app.WithSampleWorkers(1),
				)
				So(svc2.Run(context.Background()), ShouldBeNil)
				So(second.samples[10], ShouldResemble, writer.samples[10])
				So(second.samples[25], ShouldResemble, writer.samples[25])
			})
		})
	})
}

func TestServiceRunDegradedSizes(t *testing.T) {
	Convey("Given target sizes beyond the population", t, func() {
		fetcher := &stubFetcher{records: testRecords(8)}
		writer := newCaptureWriter()

		svc := app.New(
			app.WithFetcher(fetcher),
			app.WithWriter(writer),
			app.WithTargetSizes([]int{20}),
		)

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then the sample degrades to the full population", func() {
				So(err, ShouldBeNil)
				So(len(writer.samples[20]), ShouldEqual, 8)
			})
		})
	})

	Convey("Given a non-positive target size", t, func() {
		fetcher := &stubFetcher{records: testRecords(8)}
		writer := newCaptureWriter()

		svc := app.New(
			app.WithFetcher(fetcher),
			app.WithWriter(writer),
			app.WithTargetSizes([]int{0}),
		)

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then an empty sample is written, not an error", func() {
				So(err, ShouldBeNil)
				sample, ok := writer.samples[0]
				So(ok, ShouldBeTrue)
				So(sample, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceRunFailures(t *testing.T) {
	Convey("Given a fetcher that fails", t, func() {
		fetcher := &stubFetcher{err: errors.New("network down")}

		svc := app.New(
			app.WithFetcher(fetcher),
			app.WithWriter(newCaptureWriter()),
			app.WithTargetSizes([]int{5}),
		)

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then the run fails instead of sampling nothing", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "fetch population")
			})
		})
	})

	Convey("Given a writer that fails", t, func() {
		writer := newCaptureWriter()
		writer.err = errors.New("disk full")

		svc := app.New(
			app.WithFetcher(&stubFetcher{records: testRecords(10)}),
			app.WithWriter(writer),
			app.WithTargetSizes([]int{5}),
		)

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then the write error surfaces", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "disk full")
			})
		})
	})

	Convey("Given a service missing its collaborators", t, func() {
		svc := app.New(app.WithTargetSizes([]int{5}))

		Convey("When running", func() {
			err := svc.Run(context.Background())

			Convey("Then it reports the configuration error", func() {
				So(errors.Is(err, app.ErrNotConfigured), ShouldBeTrue)
			})
		})
	})
}
